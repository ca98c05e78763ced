// Package di wires the application components together.
package di

import (
	"github.com/samber/do/v2"

	"github.com/rosterapp/roster/internal/config"
	"github.com/rosterapp/roster/internal/logger"
	"github.com/rosterapp/roster/internal/ratelimit"
	"github.com/rosterapp/roster/internal/report"
	"github.com/rosterapp/roster/internal/service"
	"github.com/rosterapp/roster/internal/store"
	"github.com/rosterapp/roster/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, ProvideConfig)
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvideValidator)

	// Stores
	do.Provide(injector, ProvideStudentStore)
	do.Provide(injector, ProvideUserStore)

	// Rendering and throttling
	do.Provide(injector, ProvideRenderer)
	do.Provide(injector, ProvideLoginThrottle)

	// Business services
	do.Provide(injector, ProvideAuthService)
	do.Provide(injector, ProvideStudentService)

	return injector
}

// ProvideConfig loads the application configuration.
func ProvideConfig(do.Injector) (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the logger from config.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// ProvideValidator builds the request validator.
func ProvideValidator(do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideStudentStore opens the record table.
func ProvideStudentStore(i do.Injector) (*store.StudentStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return store.NewStudentStore(cfg.Data.BaseDir, log.Logger)
}

// ProvideUserStore opens the credential file, seeding the default admin
// account on first run.
func ProvideUserStore(i do.Injector) (*store.UserStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return store.NewUserStore(cfg.Data.BaseDir, log.Logger)
}

// ProvideRenderer parses the report templates.
func ProvideRenderer(i do.Injector) (*report.Renderer, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return report.NewRenderer(log.Logger)
}

// ProvideLoginThrottle builds the per-username login limiter.
func ProvideLoginThrottle(i do.Injector) (*ratelimit.LoginThrottle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst), nil
}

// ProvideAuthService builds the auth service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	return service.NewAuthService(
		do.MustInvoke[*store.UserStore](i),
		do.MustInvoke[*ratelimit.LoginThrottle](i),
		do.MustInvoke[*validation.Validator](i),
		do.MustInvoke[*logger.Logger](i).Logger,
	), nil
}

// ProvideStudentService builds the student service.
func ProvideStudentService(i do.Injector) (*service.StudentService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return service.NewStudentService(
		do.MustInvoke[*store.StudentStore](i),
		do.MustInvoke[*report.Renderer](i),
		do.MustInvoke[*validation.Validator](i),
		do.MustInvoke[*logger.Logger](i).Logger,
		cfg.Reports.OutputDir,
	), nil
}
