// Package session orchestrates one scanning session: raw detections come in
// from the intake layer, pass validation and the debounce gate, become scan
// events, and go out through the delivery client. Cover-scan requests run the
// identification chain and, when an ISBN comes back, rejoin the same path.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shelfpoint/scanbridge/internal/clock"
	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/debounce"
	"github.com/shelfpoint/scanbridge/internal/delivery"
	"github.com/shelfpoint/scanbridge/internal/device"
	"github.com/shelfpoint/scanbridge/internal/journal"
	"github.com/shelfpoint/scanbridge/internal/models"
	"github.com/shelfpoint/scanbridge/internal/storage"
	"github.com/shelfpoint/scanbridge/internal/upc"
)

// Deliverer posts one scan event to the sink.
type Deliverer interface {
	Send(ctx context.Context, event *models.ScanEvent) (*delivery.Result, error)
}

// Identifier resolves a cover image into book metadata.
type Identifier interface {
	Identify(ctx context.Context, image []byte) (*models.BookMetadata, error)
}

// Status classifies the outcome of one submitted detection.
type Status int

const (
	// StatusDelivered: accepted, delivered, sink answered 2xx.
	StatusDelivered Status = iota
	// StatusInvalid: the code failed validation. Dropped silently.
	StatusInvalid
	// StatusSuppressed: rejected by the debounce gate (duplicate in window
	// or a scan already in flight). Expected filtering, not an error.
	StatusSuppressed
	// StatusDeliveryFailed: accepted but the sink was unreachable after all
	// retries, or answered with an error status. Surfaced to the user; the
	// event is not requeued.
	StatusDeliveryFailed
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusInvalid:
		return "invalid"
	case StatusSuppressed:
		return "suppressed"
	case StatusDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Result is the synchronous outcome of processing one detection.
type Result struct {
	Status     Status
	Event      *models.ScanEvent
	SinkStatus int
	Err        error
}

// CoverResult is the outcome of one cover-scan request. Scan is nil when the
// resolved metadata carried no ISBN, in which case nothing was delivered.
type CoverResult struct {
	Book *models.BookMetadata
	Scan *Result
}

// Coordinator is the per-session state machine. One session ID is generated
// at construction and attached to every event for correlation at the sink.
type Coordinator struct {
	cfg        *config.Config
	gate       *debounce.Gate
	deliverer  Deliverer
	identifier Identifier
	clk        clock.Clock
	store      *storage.SessionStore
	journal    *journal.Journal

	sessionID string
	startedAt time.Time

	scanAttempts atomic.Int64

	mu          sync.Mutex
	lastEventAt time.Time

	detections chan models.Detection
}

// New creates a coordinator. store and jrnl may be nil.
func New(cfg *config.Config, gate *debounce.Gate, deliverer Deliverer, identifier Identifier, store *storage.SessionStore, jrnl *journal.Journal, clk clock.Clock) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		gate:       gate,
		deliverer:  deliverer,
		identifier: identifier,
		clk:        clk,
		store:      store,
		journal:    jrnl,
		sessionID:  uuid.NewString(),
		startedAt:  clk.Now(),
		detections: make(chan models.Detection, 64),
	}
}

// SessionID returns the session identifier attached to every event.
func (c *Coordinator) SessionID() string { return c.sessionID }

// Submit queues a raw detection for processing. It never blocks: when the
// queue is full the detection is dropped, since the gate would reject the
// burst anyway.
func (c *Coordinator) Submit(det models.Detection) bool {
	select {
	case c.detections <- det:
		return true
	default:
		slog.Warn("Detection queue full, dropping", "code", det.Code)
		return false
	}
}

// Run consumes queued detections until the context is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case det := <-c.detections:
			c.Process(ctx, det)
		}
	}
}

// Process takes one detection through validate, debounce, build, deliver.
func (c *Coordinator) Process(ctx context.Context, det models.Detection) Result {
	return c.process(ctx, det, nil)
}

// SubmitManual routes a manually entered code through the identical
// validate+debounce path as camera detections. There is no validator bypass.
func (c *Coordinator) SubmitManual(ctx context.Context, code, userAgent string) Result {
	det := models.Detection{
		Code:       code,
		Format:     models.FormatManual,
		ObservedAt: c.clk.Now(),
		UserAgent:  userAgent,
	}
	return c.process(ctx, det, nil)
}

// IdentifyCover runs the identification chain on a captured frame. When the
// resolved metadata includes an ISBN, a COVER_SCAN detection is synthesized
// and processed like any other; without one, the miss is returned and the
// Delivery Client is never invoked. Service failures propagate as errors
// distinct from a miss.
func (c *Coordinator) IdentifyCover(ctx context.Context, image []byte, userAgent string) (*CoverResult, error) {
	if err := c.cfg.ValidateVision(); err != nil {
		return nil, err
	}

	book, err := c.identifier.Identify(ctx, image)
	if err != nil {
		return nil, err
	}

	if book.ISBN == "" {
		slog.Info("Cover scan found no deliverable book",
			"confidence", book.Confidence, "detected_title", book.DetectedTitle)
		return &CoverResult{Book: book}, nil
	}

	det := models.Detection{
		Code:       book.ISBN,
		Format:     models.FormatCoverScan,
		ObservedAt: c.clk.Now(),
		UserAgent:  userAgent,
	}
	result := c.process(ctx, det, book)
	return &CoverResult{Book: book, Scan: &result}, nil
}

func (c *Coordinator) process(ctx context.Context, det models.Detection, book *models.BookMetadata) Result {
	c.scanAttempts.Add(1)

	if !upc.IsValidCode(det.Code) {
		slog.Debug("Invalid code dropped", "code", det.Code, "format", det.Format)
		return Result{Status: StatusInvalid}
	}

	// A detection stamped at intake keeps its observation time; queued
	// detections from the channel are stamped when processed.
	now := det.ObservedAt
	if now.IsZero() {
		now = c.clk.Now()
	}
	if !c.gate.Admit(det.Code, now) {
		slog.Debug("Detection suppressed", "code", det.Code)
		return Result{Status: StatusSuppressed}
	}

	// The gate reopens on a timer, not on delivery completion. Retries for
	// this event may still be in flight when the next one is accepted.
	c.clk.AfterFunc(c.gate.Cooldown(), c.gate.Release)

	event := c.buildEvent(det, now)
	if err := c.journal.Append(event); err != nil {
		slog.Warn("Journal append failed", "err", err)
	}

	record := storage.ScanRecord{
		UPC:       event.UPC,
		Format:    event.Format,
		Timestamp: event.Timestamp,
		Book:      book,
	}

	result, err := c.deliverer.Send(ctx, event)
	if err != nil {
		slog.Error("Failed to deliver scan event", "upc", event.UPC, "err", err)
		c.recordScan(record)
		return Result{Status: StatusDeliveryFailed, Event: event, Err: err}
	}

	record.Delivered = result.OK
	record.SinkStatus = result.StatusCode
	c.recordScan(record)

	if !result.OK {
		slog.Error("Event sink rejected scan event", "upc", event.UPC, "status", result.StatusCode)
		return Result{Status: StatusDeliveryFailed, Event: event, SinkStatus: result.StatusCode}
	}

	slog.Info("Scan delivered", "upc", event.UPC, "format", event.Format, "status", result.StatusCode)
	return Result{Status: StatusDelivered, Event: event, SinkStatus: result.StatusCode}
}

func (c *Coordinator) buildEvent(det models.Detection, now time.Time) *models.ScanEvent {
	c.mu.Lock()
	since := c.lastEventAt
	c.lastEventAt = now
	c.mu.Unlock()
	if since.IsZero() {
		since = c.startedAt
	}

	event := &models.ScanEvent{
		UPC:       det.Code,
		Timestamp: now.UTC(),
		Format:    det.Format,
		SessionID: c.sessionID,
		Device:    device.Info(det.UserAgent),
		Performance: models.Performance{
			ScanDurationMs: now.Sub(since).Milliseconds(),
			ScanAttempts:   c.scanAttempts.Load(),
			PageLoadTimeMs: det.PageLoadTimeMs,
		},
	}
	if c.cfg.EnableGeolocation && det.Geo != nil {
		event.Geo = det.Geo
	}
	return event
}

func (c *Coordinator) recordScan(record storage.ScanRecord) {
	if c.store == nil {
		return
	}
	c.store.AppendScan(c.sessionID, c.startedAt, record)
}
