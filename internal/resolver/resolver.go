// Package resolver turns a cover image into book metadata through an ordered
// fallback chain: ISBN found in web-detection URLs, then a title-shaped OCR
// line, then a high-scoring web entity. The first strategy that confirms a
// book wins; running out of strategies is a normal outcome, not an error.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shelfpoint/scanbridge/internal/models"
	"github.com/shelfpoint/scanbridge/internal/vision"
)

// ErrUnavailable marks a network or service failure in the identification
// chain. Callers use it to tell "could not identify" (a low-confidence
// result) apart from "identification service down" (this error).
var ErrUnavailable = errors.New("identification service unavailable")

// MetadataSource is the book-metadata lookup consumed by the resolver.
// A nil result with nil error means "no match".
type MetadataSource interface {
	FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error)
	SearchByTitle(ctx context.Context, title string) (*models.BookMetadata, error)
}

// Resolver chains the image-analysis oracle and the metadata source.
type Resolver struct {
	annotator vision.Annotator
	metadata  MetadataSource
}

// New creates a resolver.
func New(annotator vision.Annotator, metadata MetadataSource) *Resolver {
	return &Resolver{annotator: annotator, metadata: metadata}
}

// isbnPatterns are tried in priority order against web-detection URLs. The
// Amazon product path is by far the most reliable; the bare digit runs are a
// last resort and deliberately loose.
var isbnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/(\d{10})`),
	regexp.MustCompile(`(?i)isbn[=:](\d{10,13})`),
	regexp.MustCompile(`(\d{13})`),
	regexp.MustCompile(`(\d{10})`),
}

var (
	volumePrefixPattern = regexp.MustCompile(`(?i)^(VOL|VOLUME|ISSUE|#)\s*\d+`)
	yearOnlyPattern     = regexp.MustCompile(`^\d{4}$`)
	letterPattern       = regexp.MustCompile(`[a-zA-Z]`)
)

const entityScoreCutoff = 0.8

// Identify runs the fallback chain on one image. A confirmed book comes back
// with high or medium confidence depending on the strategy that matched; when
// every strategy misses, the result has low confidence and Source "none" but
// still carries the partial signals for observability.
func (r *Resolver) Identify(ctx context.Context, image []byte) (*models.BookMetadata, error) {
	annotation, err := r.annotator.Annotate(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	isbn := extractISBN(annotation.WebDetection)
	title := extractTitle(annotation.FullText())
	entity := bestEntity(annotation.WebDetection)

	// Strategy 1: ISBN from web detection, the most accurate signal.
	if isbn != "" {
		md, err := r.metadata.FetchByISBN(ctx, isbn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if md != nil {
			if md.ISBN == "" {
				md.ISBN = isbn
			}
			md.Confidence = models.ConfidenceHigh
			md.Source = models.SourceISBNWebDetection
			slog.Info("Book identified", "source", md.Source, "isbn", md.ISBN, "title", md.Title)
			return md, nil
		}
	}

	// Strategy 2: title line from OCR text.
	if title != "" {
		md, err := r.metadata.SearchByTitle(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if md != nil {
			md.Confidence = models.ConfidenceMedium
			md.Source = models.SourceTitleTextDetection
			md.DetectedTitle = title
			slog.Info("Book identified", "source", md.Source, "detected_title", title, "title", md.Title)
			return md, nil
		}
	}

	// Strategy 3: best web entity as a title search.
	if entity != "" {
		md, err := r.metadata.SearchByTitle(ctx, entity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if md != nil {
			md.Confidence = models.ConfidenceMedium
			md.Source = models.SourceWebEntity
			md.DetectedEntity = entity
			slog.Info("Book identified", "source", md.Source, "entity", entity, "title", md.Title)
			return md, nil
		}
	}

	slog.Info("No book identified", "detected_title", title, "detected_entity", entity)
	return &models.BookMetadata{
		Authors:        []string{},
		Categories:     []string{},
		Confidence:     models.ConfidenceLow,
		Source:         models.SourceNone,
		DetectedTitle:  title,
		DetectedEntity: entity,
		DetectedText:   annotation.FullText(),
	}, nil
}

// extractISBN scans web-detection match URLs for an identifier. Full matching
// images are checked before pages with matching images; within a URL the
// patterns run in priority order and the first hit wins.
func extractISBN(wd *vision.WebDetection) string {
	if wd == nil {
		return ""
	}

	for _, img := range wd.FullMatchingImages {
		if isbn := matchISBN(img.URL); isbn != "" {
			return isbn
		}
	}
	for _, page := range wd.PagesWithMatchingImages {
		if isbn := matchISBN(page.URL); isbn != "" {
			return isbn
		}
	}
	return ""
}

func matchISBN(url string) string {
	for _, pattern := range isbnPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// extractTitle picks a title candidate from the full OCR text block: split
// into lines, drop volume/issue markers and bare years, take the first line
// longer than five characters that contains a letter.
func extractTitle(fullText string) string {
	if fullText == "" {
		return ""
	}

	for _, line := range strings.Split(fullText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if volumePrefixPattern.MatchString(line) {
			continue
		}
		if yearOnlyPattern.MatchString(line) {
			continue
		}
		if len(line) > 5 && letterPattern.MatchString(line) {
			return line
		}
	}
	return ""
}

// bestEntity returns the highest-scoring web entity above the cutoff.
func bestEntity(wd *vision.WebDetection) string {
	if wd == nil {
		return ""
	}

	var best string
	bestScore := entityScoreCutoff
	for _, e := range wd.WebEntities {
		if e.Description != "" && e.Score > bestScore {
			best = e.Description
			bestScore = e.Score
		}
	}
	return best
}
