package workouts

import (
	"context"

	"github.com/2beens/fittrack/internal/store"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=workouts_test

type Repo interface {
	List(ctx context.Context, userID string) ([]Workout, error)
	Create(ctx context.Context, workout Workout) (*Workout, error)
	Get(ctx context.Context, id, userID string) (*Workout, error)
	Update(ctx context.Context, id, userID string, mutate func(*Workout) error) (*Workout, error)
	Delete(ctx context.Context, id, userID string) error
}

var (
	_ Repo = (*store.Memory[Workout, *Workout])(nil)
	_ Repo = (*PsqlRepo)(nil)
)

func NewMemoryRepo() *store.Memory[Workout, *Workout] {
	return store.NewMemory[Workout](Resource)
}
