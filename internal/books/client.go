// Package books looks up bibliographic metadata in the Google Books API and
// normalizes the first matching volume into a BookMetadata.
package books

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfpoint/scanbridge/internal/models"
	booksapi "google.golang.org/api/books/v1"
	"google.golang.org/api/option"
)

// Client wraps the Google Books volumes API. The zero-value query semantics:
// a lookup that finds no volume returns (nil, nil) — "no match" is a normal
// outcome, only transport and API failures are errors.
type Client struct {
	svc *booksapi.Service
}

// NewClient builds a books client. The public API allows unauthenticated
// volume searches. A non-empty endpoint overrides the API base URL, which
// tests use to point at a local server.
func NewClient(ctx context.Context, endpoint string) (*Client, error) {
	opts := []option.ClientOption{option.WithoutAuthentication()}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := booksapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create books service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// FetchByISBN looks a volume up by its ISBN.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error) {
	return c.query(ctx, "isbn:"+isbn)
}

// SearchByTitle searches volumes by exact title phrase.
func (c *Client) SearchByTitle(ctx context.Context, title string) (*models.BookMetadata, error) {
	return c.query(ctx, fmt.Sprintf("intitle:%q", title))
}

func (c *Client) query(ctx context.Context, q string) (*models.BookMetadata, error) {
	volumes, err := c.svc.Volumes.List(q).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("books query %q: %w", q, err)
	}

	if volumes.TotalItems == 0 || len(volumes.Items) == 0 {
		slog.Debug("No books match", "query", q)
		return nil, nil
	}

	return parseVolume(volumes.Items[0]), nil
}

// parseVolume flattens the first matching volume. ISBN-13 wins over ISBN-10
// when both identifiers are present.
func parseVolume(item *booksapi.Volume) *models.BookMetadata {
	info := item.VolumeInfo
	if info == nil {
		return nil
	}

	var isbn13, isbn10 string
	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			isbn13 = id.Identifier
		case "ISBN_10":
			isbn10 = id.Identifier
		}
	}
	isbn := isbn13
	if isbn == "" {
		isbn = isbn10
	}

	facets := DeriveFacets(info.Title, info.Categories)

	md := &models.BookMetadata{
		ISBN:          isbn,
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		PageCount:     info.PageCount,
		Categories:    info.Categories,
		CoverImageURL: coverURL(info.ImageLinks),
		AverageRating: info.AverageRating,
		Language:      info.Language,
		GoogleBooksID: item.Id,
		Series:        facets.Series,
		VolumeIssue:   facets.VolumeIssue,
		Format:        facets.Format,
	}
	if md.Authors == nil {
		md.Authors = []string{}
	}
	if md.Categories == nil {
		md.Categories = []string{}
	}
	return md
}

func coverURL(links *booksapi.VolumeVolumeInfoImageLinks) string {
	if links == nil {
		return ""
	}
	for _, u := range []string{links.Thumbnail, links.SmallThumbnail, links.Medium, links.Large} {
		if u != "" {
			return u
		}
	}
	return ""
}
