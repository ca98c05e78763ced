package store

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rosterapp/roster/internal/auth"
	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/errors"
)

const (
	// DefaultAdminUsername is the account seeded into a fresh credential file.
	DefaultAdminUsername = "admin"
	// DefaultAdminSecret is the seeded account's initial secret. Change it on
	// first login in anything resembling a real deployment.
	DefaultAdminSecret = "admin"

	maxUsernameLength = 100
)

// Internal causes for authentication failures. Callers see one generic
// invalid-credentials error either way; these sentinels travel as the wrapped
// cause so logs can tell the cases apart without leaking which usernames exist.
var (
	ErrMissingCredentials = stderrors.New("username or secret missing")
	ErrUserNotFound       = stderrors.New("user not found")
	ErrSecretMismatch     = stderrors.New("secret mismatch")
)

// UserStore persists credentials as one "username:secret-hash" line per user.
//
// The file is re-read on every operation rather than cached: registrations
// are rare, the file is tiny, and rereading keeps concurrent processes from
// diverging. A store-scoped mutex serializes the read-check-append sequence
// in Register so duplicate checks cannot race.
type UserStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewUserStore opens the credential file under baseDir, seeding a default
// admin account if the file does not exist yet. Seeding failures are logged
// but not fatal: the store still works against an empty file.
func NewUserStore(baseDir string, logger *slog.Logger) (*UserStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.Validation("data directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.DataAccessf("failed to create data directory %q", baseDir).WithCause(err)
	}

	s := &UserStore{
		path:   filepath.Join(baseDir, usersFileName),
		logger: logger,
	}
	s.ensureInitialized()
	return s, nil
}

// Path returns the location of the backing file.
func (s *UserStore) Path() string {
	return s.path
}

// ensureInitialized seeds the credential file with the default admin account
// when no file exists yet.
func (s *UserStore) ensureInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("cannot stat credential file, skipping seed", "path", s.path, "error", err)
		return
	}

	hash, err := auth.HashSecret(DefaultAdminSecret)
	if err != nil {
		s.logger.Warn("failed to hash seed secret, skipping seed", "error", err)
		return
	}

	line := fmt.Sprintf("%s:%s\n", DefaultAdminUsername, hash)
	if err := writeFileAtomic(s.path, []byte(line), 0600); err != nil {
		s.logger.Warn("failed to seed credential file", "path", s.path, "error", err)
		return
	}

	s.logger.Info("credential file seeded with default admin account", "path", s.path)
}

// loadAll reads and parses every credential line. Malformed lines are skipped
// with a warning rather than failing the whole file: one corrupt entry should
// not lock every user out. Caller must hold the mutex.
func (s *UserStore) loadAll() ([]domain.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, errors.DataAccessf("no permission to read credential file %q", s.path).WithCause(err)
		}
		return nil, errors.DataAccessf("failed to read credential file %q", s.path).WithCause(err)
	}

	var creds []domain.Credential
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			s.logger.Warn("skipping malformed credential line", "line", n+1)
			continue
		}

		username := strings.TrimSpace(parts[0])
		if username == "" {
			s.logger.Warn("skipping credential line with empty username", "line", n+1)
			continue
		}

		creds = append(creds, domain.Credential{
			Username:   username,
			SecretHash: strings.TrimSpace(parts[1]),
		})
	}

	return creds, nil
}

// Authenticate checks username and secret against the credential file and
// returns the stored credential on success.
//
// Every failure mode returns the same invalid-credentials error and message.
// The distinct underlying cause is attached as a wrapped sentinel
// (ErrUserNotFound, ErrSecretMismatch) for internal logging only.
func (s *UserStore) Authenticate(username, secret string) (*domain.Credential, error) {
	if strings.TrimSpace(username) == "" || secret == "" {
		return nil, errors.ErrInvalidCredentials.WithCause(ErrMissingCredentials)
	}

	s.mu.Lock()
	creds, err := s.loadAll()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i := range creds {
		if !creds[i].MatchesUsername(username) {
			continue
		}

		ok, err := auth.VerifySecret(creds[i].SecretHash, secret)
		if err != nil {
			return nil, errors.Internal("secret verification failed").WithCause(err)
		}
		if !ok {
			return nil, errors.ErrInvalidCredentials.WithCause(ErrSecretMismatch)
		}
		return creds[i].Clone(), nil
	}

	return nil, errors.ErrInvalidCredentials.WithCause(ErrUserNotFound)
}

// Register adds a new credential line for username.
//
// The username must not contain the field delimiter and is unique
// case-insensitively. The check and the append happen under one lock so two
// concurrent registrations of the same name cannot both succeed.
func (s *UserStore) Register(username, secret string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.Validation("username is required")
	}
	if len(username) > maxUsernameLength {
		return errors.Validationf("username must not exceed %d characters", maxUsernameLength)
	}
	if strings.Contains(username, ":") {
		return errors.Validation(`username must not contain ":"`)
	}
	if secret == "" {
		return errors.Validation("secret is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.loadAll()
	if err != nil {
		return err
	}
	for i := range creds {
		if creds[i].MatchesUsername(username) {
			return errors.AlreadyExistsf("user %q already exists", username)
		}
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		return errors.Internal("failed to hash secret").WithCause(err)
	}

	if err := s.appendLine(fmt.Sprintf("%s:%s\n", username, hash)); err != nil {
		return err
	}

	s.logger.Info("user registered", "username", username)
	return nil
}

// appendLine appends one credential line to the file, creating it if needed.
// Caller must hold the mutex.
func (s *UserStore) appendLine(line string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return errors.DataAccessf("no permission to write credential file %q", s.path).WithCause(err)
		}
		return errors.DataAccessf("failed to open credential file %q", s.path).WithCause(err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return errors.DataAccessf("failed to write credential file %q", s.path).WithCause(err)
	}
	return nil
}

// Usernames returns every registered username in file order.
func (s *UserStore) Usernames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(creds))
	for i := range creds {
		out = append(out, creds[i].Username)
	}
	return out, nil
}
