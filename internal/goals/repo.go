package goals

import (
	"context"

	"github.com/2beens/fittrack/internal/store"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=goals_test

type Repo interface {
	List(ctx context.Context, userID string) ([]Goal, error)
	Create(ctx context.Context, goal Goal) (*Goal, error)
	Get(ctx context.Context, id, userID string) (*Goal, error)
	Update(ctx context.Context, id, userID string, mutate func(*Goal) error) (*Goal, error)
	Delete(ctx context.Context, id, userID string) error
}

var (
	_ Repo = (*store.Memory[Goal, *Goal])(nil)
	_ Repo = (*PsqlRepo)(nil)
)

func NewMemoryRepo() *store.Memory[Goal, *Goal] {
	return store.NewMemory[Goal](Resource)
}
