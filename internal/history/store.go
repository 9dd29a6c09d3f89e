// Package history keeps previously generated reports. The whole history is a
// single JSON array stored in one named slot, newest report first.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/thywilljoshua/reportgen/internal/metrics"
	"github.com/thywilljoshua/reportgen/internal/report"
)

// SlotName is the key the history blob lives under.
const SlotName = "reportai-saved-reports"

var (
	ErrNotFound = errors.New("report not found")
	// ErrSlotEmpty is returned by a Slot that has never been written.
	ErrSlotEmpty = errors.New("history slot is empty")
)

type Store interface {
	// List returns every saved report, newest first.
	List(ctx context.Context) ([]report.SavedReport, error)
	// Append assigns an id and timestamp to the draft and stores it first.
	Append(ctx context.Context, d report.Draft) (report.SavedReport, error)
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (report.SavedReport, error)
}

// Slot is one named blob of bytes.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// BlobStore implements Store as read-modify-write of the serialized array in
// a Slot. Reads treat a missing or unreadable blob as an empty history; writes
// refuse to run when the slot could not be read.
type BlobStore struct {
	slot   Slot
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

func NewBlobStore(slot Slot, logger *slog.Logger) *BlobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobStore{slot: slot, now: time.Now, logger: logger}
}

func (s *BlobStore) List(ctx context.Context) ([]report.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx), nil
}

func (s *BlobStore) Get(ctx context.Context, id string) (report.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.read(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return report.SavedReport{}, goerr.Wrap(ErrNotFound, "no such report", goerr.V("id", id))
}

func (s *BlobStore) Append(ctx context.Context, d report.Draft) (report.SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load(ctx)
	if err != nil {
		return report.SavedReport{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	saved := report.SavedReport{
		ID:      nextID(now, reports),
		Topic:   d.Topic,
		Content: d.Content,
		Style:   d.Style,
		Date:    now,
		Config:  d.Config,
		Images:  d.Images,
	}

	reports = append([]report.SavedReport{saved}, reports...)
	if err := s.save(ctx, reports); err != nil {
		return report.SavedReport{}, err
	}
	return saved, nil
}

// Remove deletes the report with id. The remaining list is written even when
// it is empty.
func (s *BlobStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]report.SavedReport, 0, len(reports))
	for _, r := range reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(reports) {
		return goerr.Wrap(ErrNotFound, "no such report", goerr.V("id", id))
	}
	return s.save(ctx, kept)
}

// read is load for callers that only look: a failed read shows as empty.
func (s *BlobStore) read(ctx context.Context) []report.SavedReport {
	reports, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to read history, showing it empty", "error", err)
		return []report.SavedReport{}
	}
	return reports
}

// load returns an error only when the slot itself failed. An empty slot or a
// blob that does not parse counts as an empty history.
func (s *BlobStore) load(ctx context.Context) ([]report.SavedReport, error) {
	data, err := s.slot.Load(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return []report.SavedReport{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history")
	}

	var reports []report.SavedReport
	if err := json.Unmarshal(data, &reports); err != nil {
		s.logger.Error("failed to parse history, starting empty", "error", err)
		return []report.SavedReport{}, nil
	}
	return reports, nil
}

func (s *BlobStore) save(ctx context.Context, reports []report.SavedReport) error {
	data, err := json.Marshal(reports)
	if err != nil {
		return goerr.Wrap(err, "failed to encode history")
	}
	if err := s.slot.Save(ctx, data); err != nil {
		metrics.HistoryWriteFailures.Inc()
		return goerr.Wrap(err, "failed to write history", goerr.V("reports", len(reports)))
	}
	return nil
}

// nextID derives the id from the save time in milliseconds, moving forward
// until it is unused.
func nextID(now time.Time, existing []report.SavedReport) string {
	taken := make(map[string]bool, len(existing))
	for _, r := range existing {
		taken[r.ID] = true
	}
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("report-%d", ms)
		if !taken[id] {
			return id
		}
		ms++
	}
}
