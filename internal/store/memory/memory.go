// Package memory is the in-process Repository used for dev/demo mode and
// tests. State lives for the life of the process; the backend uses
// PostgreSQL when DATABASE_URL is set.
package memory

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	current         *domain.DatasetSnapshot
	uploads         []domain.UploadRecord
	usersByUsername map[string]domain.UserAccount
}

func New(logger *zap.Logger) *Store {
	return &Store{
		usersByUsername: seedUsers(logger),
	}
}

// seedUsers builds the initial accounts for dev/demo mode. Credentials come
// from SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD; if unset, hardcoded
// dev defaults are used with a warning.
func seedUsers(logger *zap.Logger) map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	analystPwd := envOr("SEED_ANALYST_PASSWORD", "analyst123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_ANALYST_PASSWORD") == "" {
		logger.Warn("using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_ANALYST_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"analyst", analystPwd, "analyst"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hash seed password", zap.String("username", u.username), zap.Error(err))
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) ReplaceDataset(_ context.Context, snap domain.DatasetSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := snap
	s.current = &copied
	if !snap.Sample {
		s.uploads = append(s.uploads, domain.UploadRecord{
			ID:               snap.ID,
			FileName:         snap.FileName,
			RowCount:         snap.Bundle.Summary.RowCount,
			TransactionCount: snap.Bundle.Summary.TransactionCount,
			UploadedAt:       snap.UploadedAt,
		})
	}
	return nil
}

func (s *Store) CurrentDataset(_ context.Context) (*domain.DatasetSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, store.ErrNoDataset
	}
	copied := *s.current
	return &copied, nil
}

func (s *Store) ResetDataset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	return nil
}

func (s *Store) ListUploads(_ context.Context, limit int) ([]domain.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UploadRecord, 0, len(s.uploads))
	for i := len(s.uploads) - 1; i >= 0; i-- {
		out = append(out, s.uploads[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := user
	return &copied, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByUsername[user.Username]; ok {
		return store.ErrAlreadyExists
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
