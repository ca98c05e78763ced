// Package main renders roster reports offline.
//
// It writes the aggregate statistics document, the full listing, and one
// detail document per record. With --watch it keeps running and re-renders
// whenever the record file changes on disk.
//
// Usage:
//
//	go run ./cmd/report --data-dir ~/Roster/data
//	go run ./cmd/report --watch
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/rosterapp/roster/internal/config"
	"github.com/rosterapp/roster/internal/di"
	"github.com/rosterapp/roster/internal/logger"
	"github.com/rosterapp/roster/internal/report"
	"github.com/rosterapp/roster/internal/service"
	"github.com/rosterapp/roster/internal/store"
	"github.com/rosterapp/roster/internal/watcher"
)

var (
	watch = flag.Bool("watch", false, "Keep running and re-render when the data changes")
	title = flag.String("title", "", "Report title override")
	by    = flag.String("by", "report-tool", "Generated-by stamp for the documents")
)

func main() {
	container := di.NewContainer()
	log := do.MustInvoke[*logger.Logger](container)
	cfg := do.MustInvoke[*config.Config](container)
	records := do.MustInvoke[*store.StudentStore](container)
	students := do.MustInvoke[*service.StudentService](container)

	renderAll(log, cfg, records, students)

	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(log.Logger, watcher.Options{
		SettleDelay:    cfg.Watcher.SettleDelay,
		IgnorePatterns: []string{"*.tmp"},
	})
	if err != nil {
		log.Fatal("failed to create watcher", "error", err)
	}
	if err := w.Watch(cfg.Data.BaseDir); err != nil {
		log.Fatal("failed to watch data directory", "path", cfg.Data.BaseDir, "error", err)
	}

	go func() {
		_ = w.Start(ctx)
	}()

	log.Info("watching for changes", "path", cfg.Data.BaseDir)
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case err := <-w.Errors():
			log.WithError(err).Warn("watcher error")
		case ev := <-w.Events():
			if filepath.Base(ev.Path) != filepath.Base(records.Path()) {
				continue
			}
			log.Info("record file changed, re-rendering", "event", ev.Type.String())
			if err := records.Reload(); err != nil {
				log.WithError(err).Error("reload failed, keeping previous reports")
				continue
			}
			renderAll(log, cfg, records, students)
		}
	}
}

// renderAll writes the three document kinds for the current table contents.
func renderAll(log *logger.Logger, cfg *config.Config, records *store.StudentStore, students *service.StudentService) {
	rcfg := report.Config{
		Title:             *title,
		IncludePhotos:     cfg.Reports.IncludePhotos,
		IncludeStatistics: true,
		GeneratedBy:       *by,
	}

	if records.Count() == 0 {
		log.Warn("no records to report", "path", records.Path())
		return
	}

	if _, err := students.WriteAggregateReport(rcfg); err != nil {
		log.WithError(err).Error("aggregate report failed")
	}
	if _, err := students.WriteListingReport("", rcfg); err != nil {
		log.WithError(err).Error("listing report failed")
	}
	for _, st := range records.All() {
		if _, err := students.WriteStudentReport(st.ID, rcfg); err != nil {
			log.WithError(err).Error("detail report failed", "id", st.ID)
		}
	}

	log.Info("reports written", "dir", cfg.Reports.OutputDir, "records", records.Count())
}
