// Package report renders roster records into self-contained HTML documents.
//
// Rendering is a pure transform over a snapshot of records: the renderer
// never touches a store. All user-supplied strings pass through
// html/template's contextual escaping; photo payloads are the only values
// marked trusted, and only after validation that they are data URIs we built
// ourselves.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
	"github.com/rosterapp/roster/internal/media/images"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templates embed.FS

// Config controls one rendering run.
type Config struct {
	// Title heads the document. Empty falls back to a per-kind default.
	Title string
	// IncludePhotos inlines photo payloads as data URIs.
	IncludePhotos bool
	// IncludeStatistics adds the quick-stats block to listing documents.
	IncludeStatistics bool
	// CustomCSS is appended after the built-in stylesheet. It is emitted
	// unescaped, so it must come from configuration, never from user input.
	CustomCSS string
	// GeneratedAt stamps the document footer. Zero means now.
	GeneratedAt time.Time
	// GeneratedBy names the user or tool that requested the document.
	GeneratedBy string
}

// Renderer renders records into HTML documents.
type Renderer struct {
	tmpl     *template.Template
	collator *collate.Collator
	logger   *slog.Logger
}

// NewRenderer parses the embedded templates and builds a renderer.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"rating":  func(r float64) string { return fmt.Sprintf("%.2f", r) },
		"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, errors.Internal("failed to parse report templates").WithCause(err)
	}

	return &Renderer{
		tmpl:     tmpl,
		collator: collate.New(language.Und, collate.IgnoreCase),
		logger:   logger,
	}, nil
}

// studentView wraps a record with its presentation-only derived fields.
type studentView struct {
	domain.Student
	PhotoURI template.URL
}

// pageData is the root template context for every document kind.
type pageData struct {
	Title       string
	RunID       string
	GeneratedAt string
	GeneratedBy string
	CustomCSS   template.CSS

	Student  *studentView
	Students []studentView

	Stats   *Summary
	Courses []CourseBreakdown
	Groups  []GroupBreakdown
	Buckets []RatingBucket
}

// RenderStudent renders a single record as a detail document.
func (r *Renderer) RenderStudent(s *domain.Student, cfg Config) (string, error) {
	if s == nil {
		return "", errors.Validation("student cannot be nil")
	}

	data := r.newPageData(cfg, "Student Record")
	view := r.view(*s, cfg)
	data.Student = &view

	return r.execute("detail.html", data)
}

// RenderStudents renders a listing document ordered by student name.
// Statistics are included when cfg asks for them.
func (r *Renderer) RenderStudents(list []domain.Student, cfg Config) (string, error) {
	if len(list) == 0 {
		return "", errors.Validation("no records to report")
	}

	sorted := domain.CloneAll(list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return r.collator.CompareString(sorted[i].FullName, sorted[j].FullName) < 0
	})

	data := r.newPageData(cfg, "Student Listing")
	data.Students = make([]studentView, 0, len(sorted))
	for i := range sorted {
		data.Students = append(data.Students, r.view(sorted[i], cfg))
	}
	if cfg.IncludeStatistics {
		stats := summarize(sorted)
		data.Stats = &stats
	}

	return r.execute("listing.html", data)
}

// RenderAggregate renders the cross-record statistics document: headline
// cards, course-year breakdown, largest study groups, and the rating
// histogram.
func (r *Renderer) RenderAggregate(list []domain.Student, cfg Config) (string, error) {
	if len(list) == 0 {
		return "", errors.Validation("no records to report")
	}

	stats := summarize(list)
	data := r.newPageData(cfg, "Roster Statistics")
	data.Stats = &stats
	data.Courses = byCourseYear(list)
	data.Groups = topGroups(list)
	data.Buckets = ratingBuckets(list)

	return r.execute("aggregate.html", data)
}

// WriteFile writes a rendered document to path, creating parent directories
// as needed.
func (r *Renderer) WriteFile(path, doc string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.DataAccessf("failed to create report directory for %q", path).WithCause(err)
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return errors.DataAccessf("failed to write report %q", path).WithCause(err)
	}
	r.logger.Info("report written", "path", path, "bytes", len(doc))
	return nil
}

func (r *Renderer) newPageData(cfg Config, defaultTitle string) pageData {
	title := cfg.Title
	if title == "" {
		title = defaultTitle
	}
	generatedAt := cfg.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	return pageData{
		Title:       title,
		RunID:       uuid.NewString(),
		GeneratedAt: generatedAt.Format("2006-01-02 15:04:05"),
		GeneratedBy: cfg.GeneratedBy,
		CustomCSS:   template.CSS(cfg.CustomCSS),
	}
}

// view derives the presentation wrapper for one record.
//
// The photo URI is typed template.URL because html/template would otherwise
// refuse the data: scheme. The payload is our own base64 text, prefixed here,
// so marking it trusted does not bypass escaping of user input.
func (r *Renderer) view(s domain.Student, cfg Config) studentView {
	v := studentView{Student: s}
	if cfg.IncludePhotos && s.PhotoBase64 != "" {
		mime := images.DetectMIME(s.PhotoBase64)
		v.PhotoURI = template.URL("data:" + mime + ";base64," + s.PhotoBase64)
	}
	return v
}

func (r *Renderer) execute(name string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("report template execution failed", "template", name, "error", err)
		return "", errors.Internal("failed to render report").WithCause(err)
	}
	return buf.String(), nil
}
