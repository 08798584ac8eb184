package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfpoint/scanbridge/internal/models"
	"github.com/shelfpoint/scanbridge/internal/vision"
)

type fakeAnnotator struct {
	annotation *vision.Annotation
	err        error
}

func (f *fakeAnnotator) Annotate(ctx context.Context, image []byte) (*vision.Annotation, error) {
	return f.annotation, f.err
}

type fakeMetadata struct {
	byISBN     map[string]*models.BookMetadata
	byTitle    map[string]*models.BookMetadata
	err        error
	isbnCalls  []string
	titleCalls []string
}

func (f *fakeMetadata) FetchByISBN(ctx context.Context, isbn string) (*models.BookMetadata, error) {
	f.isbnCalls = append(f.isbnCalls, isbn)
	if f.err != nil {
		return nil, f.err
	}
	return f.byISBN[isbn], nil
}

func (f *fakeMetadata) SearchByTitle(ctx context.Context, title string) (*models.BookMetadata, error) {
	f.titleCalls = append(f.titleCalls, title)
	if f.err != nil {
		return nil, f.err
	}
	return f.byTitle[title], nil
}

func webAnnotation() *vision.Annotation {
	return &vision.Annotation{
		TextAnnotations: []vision.TextAnnotation{
			{Description: "VOL 1\n2012\nCOURT OF OWLS\nScott Snyder"},
		},
		WebDetection: &vision.WebDetection{
			FullMatchingImages: []vision.WebImage{
				{URL: "https://img.example.com/covers/plain.jpg"},
				{URL: "https://www.amazon.com/dp/1401235417/ref=something"},
			},
			WebEntities: []vision.WebEntity{
				{Description: "Batman", Score: 0.93},
				{Description: "Comics", Score: 0.85},
			},
		},
	}
}

func TestIdentifyISBNPathShortCircuits(t *testing.T) {
	metadata := &fakeMetadata{
		byISBN: map[string]*models.BookMetadata{
			"1401235417": {ISBN: "9781401235413", Title: "Batman Vol 1"},
		},
	}
	r := New(&fakeAnnotator{annotation: webAnnotation()}, metadata)

	md, err := r.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if md.Confidence != models.ConfidenceHigh || md.Source != models.SourceISBNWebDetection {
		t.Errorf("unexpected confidence/source: %s/%s", md.Confidence, md.Source)
	}
	if len(metadata.isbnCalls) != 1 || metadata.isbnCalls[0] != "1401235417" {
		t.Errorf("expected one ISBN lookup, got %v", metadata.isbnCalls)
	}
	// A confirmed ISBN hit must not fall through to the later strategies.
	if len(metadata.titleCalls) != 0 {
		t.Errorf("title path must not run after an ISBN hit, got %v", metadata.titleCalls)
	}
}

func TestIdentifyTitleFallback(t *testing.T) {
	annotation := webAnnotation()
	annotation.WebDetection.FullMatchingImages = nil
	annotation.WebDetection.WebEntities = nil

	metadata := &fakeMetadata{
		byTitle: map[string]*models.BookMetadata{
			"COURT OF OWLS": {ISBN: "9781401235413", Title: "Batman Vol 1: The Court of Owls"},
		},
	}
	r := New(&fakeAnnotator{annotation: annotation}, metadata)

	md, err := r.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if md.Confidence != models.ConfidenceMedium || md.Source != models.SourceTitleTextDetection {
		t.Errorf("unexpected confidence/source: %s/%s", md.Confidence, md.Source)
	}
	if md.DetectedTitle != "COURT OF OWLS" {
		t.Errorf("detected title = %q", md.DetectedTitle)
	}
	// VOL and year lines must be skipped; exactly one search call.
	if len(metadata.titleCalls) != 1 {
		t.Errorf("expected exactly one title search, got %v", metadata.titleCalls)
	}
}

func TestIdentifyEntityFallback(t *testing.T) {
	annotation := webAnnotation()
	annotation.WebDetection.FullMatchingImages = nil
	annotation.TextAnnotations = nil

	metadata := &fakeMetadata{
		byTitle: map[string]*models.BookMetadata{
			"Batman": {ISBN: "9781401235413", Title: "Batman"},
		},
	}
	r := New(&fakeAnnotator{annotation: annotation}, metadata)

	md, err := r.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if md.Source != models.SourceWebEntity || md.Confidence != models.ConfidenceMedium {
		t.Errorf("unexpected confidence/source: %s/%s", md.Confidence, md.Source)
	}
	// Highest-scoring entity above the cutoff wins.
	if md.DetectedEntity != "Batman" {
		t.Errorf("detected entity = %q", md.DetectedEntity)
	}
}

func TestIdentifyAllMissReturnsLowConfidence(t *testing.T) {
	annotation := &vision.Annotation{
		TextAnnotations: []vision.TextAnnotation{
			{Description: "VOL 3\n1999\nab"},
		},
		WebDetection: &vision.WebDetection{
			WebEntities: []vision.WebEntity{
				{Description: "Paper", Score: 0.4},
			},
		},
	}
	metadata := &fakeMetadata{}
	r := New(&fakeAnnotator{annotation: annotation}, metadata)

	md, err := r.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("a miss is not an error: %v", err)
	}

	if md.Confidence != models.ConfidenceLow || md.Source != models.SourceNone {
		t.Errorf("unexpected confidence/source: %s/%s", md.Confidence, md.Source)
	}
	if md.DetectedText == "" {
		t.Error("partial OCR text should be carried through for observability")
	}
	if len(metadata.isbnCalls) != 0 || len(metadata.titleCalls) != 0 {
		t.Errorf("no metadata calls expected, got %v / %v", metadata.isbnCalls, metadata.titleCalls)
	}
}

func TestIdentifyISBNMissFallsThroughToTitle(t *testing.T) {
	metadata := &fakeMetadata{
		byTitle: map[string]*models.BookMetadata{
			"COURT OF OWLS": {Title: "Batman Vol 1: The Court of Owls"},
		},
	}
	r := New(&fakeAnnotator{annotation: webAnnotation()}, metadata)

	md, err := r.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}

	if len(metadata.isbnCalls) != 1 {
		t.Errorf("ISBN path should have been tried first, got %v", metadata.isbnCalls)
	}
	if md.Source != models.SourceTitleTextDetection {
		t.Errorf("expected title fallback after ISBN miss, got %s", md.Source)
	}
}

func TestIdentifyAnnotatorFailureIsUnavailable(t *testing.T) {
	r := New(&fakeAnnotator{err: errors.New("relay timeout")}, &fakeMetadata{})

	_, err := r.Identify(context.Background(), []byte("img"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestIdentifyMetadataFailureIsUnavailable(t *testing.T) {
	metadata := &fakeMetadata{err: errors.New("connection refused")}
	r := New(&fakeAnnotator{annotation: webAnnotation()}, metadata)

	_, err := r.Identify(context.Background(), []byte("img"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExtractISBNPriorities(t *testing.T) {
	tests := []struct {
		name string
		wd   *vision.WebDetection
		want string
	}{
		{
			name: "amazon product path",
			wd: &vision.WebDetection{
				FullMatchingImages: []vision.WebImage{{URL: "https://amazon.com/dp/0785190217"}},
			},
			want: "0785190217",
		},
		{
			name: "isbn query parameter",
			wd: &vision.WebDetection{
				PagesWithMatchingImages: []vision.WebPage{{URL: "https://shop.example.com/item?isbn=9781401235413"}},
			},
			want: "9781401235413",
		},
		{
			name: "full matching images beat pages",
			wd: &vision.WebDetection{
				FullMatchingImages:      []vision.WebImage{{URL: "https://amazon.com/dp/1111111111"}},
				PagesWithMatchingImages: []vision.WebPage{{URL: "https://amazon.com/dp/2222222222"}},
			},
			want: "1111111111",
		},
		{
			name: "bare thirteen digit run",
			wd: &vision.WebDetection{
				FullMatchingImages: []vision.WebImage{{URL: "https://cdn.example.com/9781401235413.jpg"}},
			},
			want: "9781401235413",
		},
		{
			name: "no identifier",
			wd: &vision.WebDetection{
				FullMatchingImages: []vision.WebImage{{URL: "https://cdn.example.com/cover.jpg"}},
			},
			want: "",
		},
		{
			name: "nil detection",
			wd:   nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractISBN(tt.wd); got != tt.want {
				t.Errorf("extractISBN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"skips volume and year", "VOL 1\n2012\nCOURT OF OWLS", "COURT OF OWLS"},
		{"skips issue hash", "#300\nAmazing Spider-Man", "Amazing Spider-Man"},
		{"short lines skipped", "ab\ncd\nThe Hobbit", "The Hobbit"},
		{"digits only never a title", "123456789\n2020", ""},
		{"empty text", "", ""},
		{"whitespace lines", "   \n\nMoby Dick Extended", "Moby Dick Extended"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.text); got != tt.want {
				t.Errorf("extractTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestBestEntityPicksHighestAboveCutoff(t *testing.T) {
	wd := &vision.WebDetection{
		WebEntities: []vision.WebEntity{
			{Description: "Comics", Score: 0.85},
			{Description: "Batman", Score: 0.95},
			{Description: "Paper", Score: 0.79},
			{Description: "", Score: 0.99},
		},
	}
	if got := bestEntity(wd); got != "Batman" {
		t.Errorf("bestEntity = %q, want Batman", got)
	}

	if got := bestEntity(&vision.WebDetection{WebEntities: []vision.WebEntity{{Description: "Paper", Score: 0.5}}}); got != "" {
		t.Errorf("entities below cutoff must be ignored, got %q", got)
	}
}
