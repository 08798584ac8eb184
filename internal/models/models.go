package models

import "time"

// Barcode formats produced by the client-side decoder, plus the synthetic
// formats this service generates itself.
const (
	FormatUPCA      = "UPC_A"
	FormatUPCE      = "UPC_E"
	FormatEAN13     = "EAN_13"
	FormatEAN8      = "EAN_8"
	FormatCode128   = "CODE_128"
	FormatCoverScan = "COVER_SCAN"
	FormatManual    = "MANUAL"
)

// Confidence tiers for a resolved book match, derived from which fallback
// strategy succeeded.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Sources for a resolved book match.
const (
	SourceISBNWebDetection   = "isbn_web_detection"
	SourceTitleTextDetection = "title_text_detection"
	SourceWebEntity          = "web_entity"
	SourceNone               = "none"
)

// Physical book formats derived from title and category keywords.
const (
	BookFormatHardcover      = "Hardcover"
	BookFormatTradePaperback = "Trade Paperback"
	BookFormatSingleIssue    = "Single Issue"
	BookFormatUnknown        = "Unknown"
)

// Detection is a single raw decoder output. It is ephemeral: produced by the
// intake layer, consumed immediately by the coordinator, never persisted.
type Detection struct {
	Code       string    `json:"code"`
	Format     string    `json:"format"`
	ObservedAt time.Time `json:"observed_at"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Geo        *Geo      `json:"geo,omitempty"`
	// PageLoadTimeMs is a client-supplied hint carried through to the
	// event's performance block.
	PageLoadTimeMs int64 `json:"page_load_time_ms,omitempty"`
}

// Geo is an optional coarse location attached by the client.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeviceInfo describes the scanning device, parsed from its user agent.
type DeviceInfo struct {
	Device  string `json:"device"`
	Browser string `json:"browser,omitempty"`
}

// Performance carries per-scan timing diagnostics.
type Performance struct {
	ScanDurationMs int64 `json:"scan_duration_ms"`
	ScanAttempts   int64 `json:"scan_attempts"`
	PageLoadTimeMs int64 `json:"page_load_time_ms"`
}

// ScanEvent is the payload delivered to the event sink. Built fresh per
// accepted detection and immutable once constructed; there is no persistent
// queue, so the event is discarded after its single delivery cycle.
type ScanEvent struct {
	UPC         string      `json:"upc"`
	Timestamp   time.Time   `json:"timestamp"`
	Format      string      `json:"format"`
	SessionID   string      `json:"session_id"`
	Device      DeviceInfo  `json:"device"`
	Performance Performance `json:"performance"`
	Geo         *Geo        `json:"geo,omitempty"`
}

// BookMetadata is the result of one cover-identification call. Produced once
// per call, not cached, not merged across calls. A low-confidence result with
// Source "none" still carries whatever partial signals were found so callers
// can log them.
type BookMetadata struct {
	ISBN          string   `json:"isbn,omitempty"`
	Title         string   `json:"title,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"`
	PageCount     int64    `json:"page_count,omitempty"`
	Categories    []string `json:"categories"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	Language      string   `json:"language,omitempty"`
	GoogleBooksID string   `json:"google_books_id,omitempty"`

	// Shop owner fields derived from the title and categories.
	Series      string `json:"series,omitempty"`
	VolumeIssue string `json:"volume_issue,omitempty"`
	Format      string `json:"format,omitempty"`

	Confidence string `json:"confidence"`
	Source     string `json:"source"`

	// Diagnostics: raw signals from the image analysis, populated even when
	// no book was confirmed.
	DetectedTitle  string `json:"detected_title,omitempty"`
	DetectedEntity string `json:"detected_entity,omitempty"`
	DetectedText   string `json:"detected_text,omitempty"`
}

// Identified reports whether the resolver confirmed a book.
func (b *BookMetadata) Identified() bool {
	return b != nil && b.Source != SourceNone && b.Source != ""
}
