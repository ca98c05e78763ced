package store

import (
	"bytes"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
	"github.com/rosterapp/roster/internal/id"
)

// StudentStore holds the full student table in memory and persists it as a
// single JSON document. Every mutation rewrites the whole file; the table is
// small enough that simplicity beats incremental writes.
//
// All access goes through a store-scoped RWMutex: reads run concurrently,
// mutations serialize. Mutations apply to memory first and then persist, so a
// failed save leaves memory ahead of disk; callers that care should Reload.
type StudentStore struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	table []domain.Student
}

// NewStudentStore opens the record table under baseDir, loading it eagerly.
//
// A missing file is an empty table. An unreadable or corrupt file is an
// error: partial loads would silently drop records on the next save.
func NewStudentStore(baseDir string, logger *slog.Logger) (*StudentStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.Validation("data directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.DataAccessf("failed to create data directory %q", baseDir).WithCause(err)
	}

	s := &StudentStore{
		path:   filepath.Join(baseDir, studentsFileName),
		logger: logger,
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Info("student store opened", "path", s.path, "records", len(s.table))
	return s, nil
}

// Path returns the location of the backing file.
func (s *StudentStore) Path() string {
	return s.path
}

// load reads and parses the backing file into the in-memory table.
// Caller must hold the write lock (or have exclusive access during construction).
func (s *StudentStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.table = nil
			return nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return errors.DataAccessf("no permission to read record file %q", s.path).WithCause(err)
		}
		return errors.DataAccessf("failed to read record file %q", s.path).WithCause(err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		s.table = nil
		return nil
	}

	var table []domain.Student
	if err := json.Unmarshal(data, &table, json.MatchCaseInsensitiveNames(true)); err != nil {
		return errors.DataAccessf("record file %q is corrupt", s.path).WithCause(err)
	}

	s.table = table
	return nil
}

// save serializes the whole table and atomically replaces the backing file.
// Caller must hold the write lock.
func (s *StudentStore) save() error {
	table := s.table
	if table == nil {
		table = []domain.Student{}
	}

	data, err := json.Marshal(table, jsontext.WithIndent("  "))
	if err != nil {
		return errors.DataAccess("failed to encode record table").WithCause(err)
	}

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return errors.DataAccessf("no permission to write record file %q", s.path).WithCause(err)
		}
		return errors.DataAccessf("failed to write record file %q", s.path).WithCause(err)
	}
	return nil
}

// ListFor returns independent copies of all records owned by owner, compared
// case-insensitively. A blank owner matches nothing.
func (s *StudentStore) ListFor(owner string) []domain.Student {
	if strings.TrimSpace(owner) == "" {
		return []domain.Student{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Student, 0)
	for i := range s.table {
		if s.table[i].OwnedBy(owner) {
			out = append(out, s.table[i])
		}
	}
	return out
}

// All returns an independent copy of the entire table, every owner included.
// Reporting across owners uses this; the interactive flows use ListFor.
func (s *StudentStore) All() []domain.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneAll(s.table)
}

// Count returns the number of records in the table.
func (s *StudentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// Get returns a copy of the record with the given id.
func (s *StudentStore) Get(recordID string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.table {
		if s.table[i].ID == recordID {
			return s.table[i].Clone(), nil
		}
	}
	return nil, errors.NotFoundf("record %q not found", recordID)
}

// Create assigns a fresh id and timestamps to st, appends it to the table,
// and persists. The assigned id is written back into st.
func (s *StudentStore) Create(st *domain.Student) error {
	if st == nil {
		return errors.Validation("student cannot be nil")
	}
	if strings.TrimSpace(st.Owner) == "" {
		return errors.Validation("owner is required")
	}

	newID, err := id.Student()
	if err != nil {
		return errors.Internal("failed to generate record id").WithCause(err)
	}
	st.ID = newID
	st.InitTimestamps()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = append(s.table, *st.Clone())
	if err := s.save(); err != nil {
		s.logger.Warn("record table save failed, memory ahead of disk",
			"op", "create", "id", st.ID, "error", err)
		return err
	}

	s.logger.Debug("record created", "id", st.ID, "owner", st.Owner)
	return nil
}

// Update replaces the stored record with the same id.
//
// CreatedAt is preserved from the stored copy and UpdatedAt is refreshed;
// everything else comes from st verbatim. Any id that matches nothing,
// including a blank one, reports not-found.
func (s *StudentStore) Update(st *domain.Student) error {
	if st == nil {
		return errors.Validation("student cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.table {
		if s.table[i].ID == st.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return errors.NotFoundf("record %q not found", st.ID)
	}

	updated := *st.Clone()
	updated.CreatedAt = s.table[idx].CreatedAt
	updated.Touch()
	s.table[idx] = updated

	if err := s.save(); err != nil {
		s.logger.Warn("record table save failed, memory ahead of disk",
			"op", "update", "id", st.ID, "error", err)
		return err
	}

	s.logger.Debug("record updated", "id", st.ID)
	return nil
}

// Delete removes the record with the given id on behalf of actingOwner.
//
// Deleting an id that no longer exists is a no-op: the desired end state is
// already true. Deleting a record owned by someone else is refused.
func (s *StudentStore) Delete(recordID, actingOwner string) error {
	if strings.TrimSpace(actingOwner) == "" {
		return errors.Validation("acting owner is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.table {
		if s.table[i].ID == recordID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.logger.Debug("delete of missing record ignored", "id", recordID)
		return nil
	}

	if !s.table[idx].OwnedBy(actingOwner) {
		return errors.Forbiddenf("user %q does not own record %q (owner %q)",
			actingOwner, recordID, s.table[idx].Owner)
	}

	s.table = append(s.table[:idx], s.table[idx+1:]...)

	if err := s.save(); err != nil {
		s.logger.Warn("record table save failed, memory ahead of disk",
			"op", "delete", "id", recordID, "error", err)
		return err
	}

	s.logger.Debug("record deleted", "id", recordID, "owner", actingOwner)
	return nil
}

// Reload discards the in-memory table and re-reads the backing file. Use it
// after an external edit to the file, or after a failed save.
func (s *StudentStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.logger.Info("student store reloaded", "path", s.path, "records", len(s.table))
	return nil
}
