package service

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/media/images"
	"github.com/rosterapp/roster/internal/report"
	"github.com/rosterapp/roster/internal/store"
	"github.com/rosterapp/roster/internal/validation"
)

// StudentService manages roster records: validation on the way in, blurhash
// enrichment for photos, and report generation on snapshots.
type StudentService struct {
	records   *store.StudentStore
	renderer  *report.Renderer
	validator *validation.Validator
	logger    *slog.Logger
	reportDir string
}

// NewStudentService creates a student service writing reports under reportDir.
func NewStudentService(records *store.StudentStore, renderer *report.Renderer, validator *validation.Validator, logger *slog.Logger, reportDir string) *StudentService {
	return &StudentService{
		records:   records,
		renderer:  renderer,
		validator: validator,
		logger:    logger,
		reportDir: reportDir,
	}
}

// List returns the records owned by owner.
func (s *StudentService) List(owner string) []domain.Student {
	return s.records.ListFor(owner)
}

// Get returns one record by id.
func (s *StudentService) Get(id string) (*domain.Student, error) {
	return s.records.Get(id)
}

// Create validates and stores a new record. A photo payload, when present,
// gets a blurhash placeholder computed before the record is persisted.
func (s *StudentService) Create(st *domain.Student) error {
	if err := s.validator.Validate(st); err != nil {
		return err
	}
	if err := s.enrichPhoto(st); err != nil {
		return err
	}
	return s.records.Create(st)
}

// Update validates and replaces an existing record, recomputing the blurhash
// in case the photo changed.
func (s *StudentService) Update(st *domain.Student) error {
	if err := s.validator.Validate(st); err != nil {
		return err
	}
	if err := s.enrichPhoto(st); err != nil {
		return err
	}
	return s.records.Update(st)
}

// Delete removes a record on behalf of actingOwner.
func (s *StudentService) Delete(id, actingOwner string) error {
	return s.records.Delete(id, actingOwner)
}

// enrichPhoto keeps the blurhash in sync with the photo payload. An invalid
// payload fails the whole operation rather than storing a broken photo.
func (s *StudentService) enrichPhoto(st *domain.Student) error {
	if st.PhotoBase64 == "" {
		st.PhotoBlurHash = ""
		return nil
	}

	hash, err := images.ComputeBlurHash(st.PhotoBase64)
	if err != nil {
		return err
	}
	st.PhotoBlurHash = hash
	return nil
}

// WriteStudentReport renders the detail document for one record and writes
// it under the report directory. Returns the file path.
func (s *StudentService) WriteStudentReport(id string, cfg report.Config) (string, error) {
	st, err := s.records.Get(id)
	if err != nil {
		return "", err
	}

	doc, err := s.renderer.RenderStudent(st, cfg)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reportDir, fmt.Sprintf("student-%s.html", st.ID))
	if err := s.renderer.WriteFile(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteListingReport renders the listing document for owner's records, or
// for every record when owner is empty. Returns the file path.
func (s *StudentService) WriteListingReport(owner string, cfg report.Config) (string, error) {
	var list []domain.Student
	name := "listing.html"
	if owner == "" {
		list = s.records.All()
	} else {
		list = s.records.ListFor(owner)
		name = fmt.Sprintf("listing-%s.html", domain.Fold(owner))
	}

	doc, err := s.renderer.RenderStudents(list, cfg)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reportDir, name)
	if err := s.renderer.WriteFile(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAggregateReport renders the statistics document over the whole table.
// Returns the file path.
func (s *StudentService) WriteAggregateReport(cfg report.Config) (string, error) {
	doc, err := s.renderer.RenderAggregate(s.records.All(), cfg)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reportDir, "statistics.html")
	if err := s.renderer.WriteFile(path, doc); err != nil {
		return "", err
	}
	return path, nil
}
