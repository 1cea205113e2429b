package profile

import (
	"context"

	"github.com/2beens/fittrack/internal/store"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=profile_test

type Repo interface {
	Get(ctx context.Context, id, userID string) (*Profile, error)
	Update(ctx context.Context, id, userID string, mutate func(*Profile) error) (*Profile, error)
	// Insert stores profile under its own id; an existing profile is kept as is.
	Insert(ctx context.Context, profile Profile) error
}

var (
	_ Repo = (*store.Memory[Profile, *Profile])(nil)
	_ Repo = (*PsqlRepo)(nil)
)

func NewMemoryRepo() *store.Memory[Profile, *Profile] {
	return store.NewMemory[Profile](Resource)
}
