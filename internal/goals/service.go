package goals

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

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

func (s *Service) List(ctx context.Context, userID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	goals, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Create stores a new goal starting from zero progress.
func (s *Service) Create(ctx context.Context, userID string, form GoalForm) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	goal := form.Goal(userID)
	if err := goal.Recompute(); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	created, err := s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.metrics.CounterGoalsCreated.Inc()
	return created, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	goal, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

// Update overwrites the supplied fields and recomputes progress from the
// resulting current and target.
func (s *Service) Update(ctx context.Context, id, userID string, form UpdateGoalForm) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.update(ctx, id, userID, form.Apply)
}

func (s *Service) UpdateProgress(ctx context.Context, id, userID string, current float64) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.update.progress")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.update(ctx, id, userID, func(g *Goal) {
		g.Current = current
	})
}

func (s *Service) update(ctx context.Context, id, userID string, apply func(*Goal)) (*Goal, error) {
	var wasCompleted bool
	updated, err := s.repo.Update(ctx, id, userID, func(g *Goal) error {
		wasCompleted = g.Completed
		apply(g)
		return g.Recompute()
	})
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if updated.Completed && !wasCompleted {
		log.Debugf("goal [%s] of user [%s] completed", updated.ID, userID)
		s.metrics.CounterGoalsCompleted.Inc()
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.goals.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
