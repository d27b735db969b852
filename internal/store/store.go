package store

import (
	"context"
	"errors"

	"github.com/honeylavenderwrites/retailytic/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNoDataset     = errors.New("no dataset loaded")
	ErrAlreadyExists = errors.New("already exists")
)

// Repository owns the application state: exactly one current dataset
// snapshot at a time (sample data until the first upload), the upload
// history, and the user accounts. ReplaceDataset and ResetDataset are the
// only two mutation entry points for the snapshot.
type Repository interface {
	ReplaceDataset(ctx context.Context, snap domain.DatasetSnapshot) error
	CurrentDataset(ctx context.Context) (*domain.DatasetSnapshot, error)
	ResetDataset(ctx context.Context) error
	ListUploads(ctx context.Context, limit int) ([]domain.UploadRecord, error)

	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
