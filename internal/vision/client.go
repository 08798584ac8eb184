// Package vision calls the image-analysis relay that fronts the cloud vision
// service. One round trip returns text detection, web detection, and label
// detection together; interpreting those signals is the resolver's job.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Annotation is the raw analysis result for one image.
type Annotation struct {
	TextAnnotations  []TextAnnotation `json:"textAnnotations"`
	WebDetection     *WebDetection    `json:"webDetection"`
	LabelAnnotations []Label          `json:"labelAnnotations"`
}

// TextAnnotation is one OCR result. The first annotation is the full text
// block; the rest are individual words.
type TextAnnotation struct {
	Description string `json:"description"`
}

// WebDetection holds URLs and entities matching the image on the open web.
type WebDetection struct {
	FullMatchingImages      []WebImage  `json:"fullMatchingImages"`
	PagesWithMatchingImages []WebPage   `json:"pagesWithMatchingImages"`
	WebEntities             []WebEntity `json:"webEntities"`
}

// WebImage is an exact-match image URL.
type WebImage struct {
	URL string `json:"url"`
}

// WebPage is a page containing a matching image.
type WebPage struct {
	URL string `json:"url"`
}

// WebEntity is a named entity inferred from web matches.
type WebEntity struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Label is a classification label for the image.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// FullText returns the complete OCR text block, if any.
func (a *Annotation) FullText() string {
	if a == nil || len(a.TextAnnotations) == 0 {
		return ""
	}
	return a.TextAnnotations[0].Description
}

// Annotator is the interface the resolver consumes.
type Annotator interface {
	Annotate(ctx context.Context, image []byte) (*Annotation, error)
}

// Client talks to the vision relay over HTTP.
type Client struct {
	relayURL   string
	httpClient *http.Client
}

// NewClient creates a vision client. The timeout bounds the whole annotate
// round trip; expiry cancels the in-flight request.
func NewClient(relayURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		relayURL: relayURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type annotateRequest struct {
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
}

type annotateResponse struct {
	Success bool        `json:"success"`
	Result  *Annotation `json:"result"`
	Error   string      `json:"error"`
}

// Annotate submits the image for analysis and returns the raw annotation.
// Any failure here is a service availability problem, never a "no book
// found" outcome.
func (c *Client) Annotate(ctx context.Context, image []byte) (*Annotation, error) {
	body, err := json.Marshal(annotateRequest{
		Image:     base64.StdEncoding.EncodeToString(image),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call vision relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("vision relay returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("vision relay error: %s", parsed.Error)
	}
	if parsed.Result == nil {
		parsed.Result = &Annotation{}
	}

	slog.Debug("Image annotated",
		"text_annotations", len(parsed.Result.TextAnnotations),
		"has_web_detection", parsed.Result.WebDetection != nil)
	return parsed.Result, nil
}
