package workouts

import (
	"context"
	"fmt"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

type Service struct {
	repo    Repo
	metrics *metrics.Manager
}

func NewService(repo Repo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (s *Service) List(ctx context.Context, userID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	workouts, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

func (s *Service) Create(ctx context.Context, userID string, form WorkoutForm) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	created, err := s.repo.Create(ctx, form.Workout(userID))
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}

	s.metrics.CounterWorkoutsCreated.Inc()
	return created, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	workout, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get workout: %w", err)
	}
	return workout, nil
}

func (s *Service) Update(ctx context.Context, id, userID string, form UpdateWorkoutForm) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	updated, err := s.repo.Update(ctx, id, userID, func(w *Workout) error {
		form.Apply(w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}
