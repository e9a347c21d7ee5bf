package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"av1ify/internal/logging"
	"av1ify/internal/services"
)

// Store is the in-memory conversion history backed by a JSON file.
// Reads may run concurrently with worker writes; all access goes
// through the store's lock.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]*Record
	logger  *slog.Logger
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:    path,
		records: make(map[string]*Record),
		logger:  logging.NewComponentLogger(logger, "history"),
	}
}

// Load reads the persisted history. A missing file yields an empty
// store. A corrupt file is logged and the store starts empty rather
// than failing startup; individual invalid records are skipped with a
// warning so one bad entry never discards the rest.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		s.logger.Warn("history unreadable, starting empty", logging.Error(err))
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var loaded []*Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("history corrupt, starting empty",
			logging.String("path", s.path), logging.Error(err))
		return nil
	}

	for _, rec := range loaded {
		if rec == nil {
			continue
		}
		if err := rec.Validate(); err != nil {
			s.logger.Warn("skipping invalid history record", logging.Error(err))
			continue
		}
		s.records[rec.ID] = rec
	}
	return nil
}

// Get returns a copy of the record for id, if present.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Upsert inserts or replaces the record. Timestamps are maintained
// here: first_seen is set once, last_updated on every call.
func (s *Store) Upsert(rec Record) error {
	if err := rec.Validate(); err != nil {
		return services.Wrap(services.ErrInput, "history", "upsert", "invalid record", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.records[rec.ID]; ok && !existing.FirstSeen.IsZero() {
		rec.FirstSeen = existing.FirstSeen
	} else if rec.FirstSeen.IsZero() {
		rec.FirstSeen = now
	}
	rec.LastUpdated = now

	stored := rec
	s.records[rec.ID] = &stored
	return nil
}

// Delete removes the record for id. Removing an absent id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// ByStatus returns copies of all records with the given status, in
// unspecified order.
func (s *Store) ByStatus(status Status) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out
}

// All returns copies of every record sorted by identity for stable
// display and serialization.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of records held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Save persists the full record set with a write-to-temp-then-rename so
// a crash mid-write never corrupts the previous file. In-memory state
// stays authoritative when the write fails; the caller may retry.
func (s *Store) Save() error {
	s.mu.RLock()
	records := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "history", "save", "encode records", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrPersistence, "history", "save", "create state directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "history", "save", "create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, "history", "save", "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, "history", "save", "sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, "history", "save", "close temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrPersistence, "history", "save",
			fmt.Sprintf("rename into %s", s.path), err)
	}
	return nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }
