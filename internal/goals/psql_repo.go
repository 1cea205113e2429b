package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

const goalColumns = `
	id, user_id, title, type, category, target, current, unit, deadline,
	progress, completed, difficulty, priority, description, created_at, updated_at`

type PsqlRepo struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPsqlRepo(db *pgxpool.Pool) *PsqlRepo {
	return &PsqlRepo{
		db:  db,
		now: time.Now,
	}
}

func scanGoal(row pgx.Row) (*Goal, error) {
	g := &Goal{}
	if err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Type, &g.Category, &g.Target, &g.Current, &g.Unit, &g.Deadline,
		&g.Progress, &g.Completed, &g.Difficulty, &g.Priority, &g.Description, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *PsqlRepo) List(ctx context.Context, userID string) (_ []Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user-id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+goalColumns+`
		FROM goal
		WHERE user_id = $1
		ORDER BY seq
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *PsqlRepo) Create(ctx context.Context, goal Goal) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	now := r.now().UTC()
	goal.Stamp(uuid.NewString(), now, now)

	row := r.db.QueryRow(ctx, `
		INSERT INTO goal (`+goalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+goalColumns,
		goal.ID, goal.UserID, goal.Title, goal.Type, goal.Category, goal.Target, goal.Current, goal.Unit, goal.Deadline,
		goal.Progress, goal.Completed, goal.Difficulty, goal.Priority, goal.Description, goal.CreatedAt, goal.UpdatedAt,
	)
	return scanGoal(row)
}

func (r *PsqlRepo) Get(ctx context.Context, id, userID string) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	g, err := scanGoal(r.db.QueryRow(ctx, `
		SELECT `+goalColumns+`
		FROM goal
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	return g, err
}

// Update locks the row for the duration of mutate, so concurrent updates of
// the same goal are applied one after another.
func (r *PsqlRepo) Update(ctx context.Context, id, userID string, mutate func(*Goal) error) (_ *Goal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	g, err := scanGoal(tx.QueryRow(ctx, `
		SELECT `+goalColumns+`
		FROM goal
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(g); err != nil {
		return nil, err
	}
	g.Stamp(id, time.Time{}, r.now().UTC())

	return scanGoal(tx.QueryRow(ctx, `
		UPDATE goal SET
			title = $3, type = $4, category = $5, target = $6, current = $7, unit = $8, deadline = $9,
			progress = $10, completed = $11, difficulty = $12, priority = $13, description = $14, updated_at = $15
		WHERE id = $1 AND user_id = $2
		RETURNING `+goalColumns,
		id, userID,
		g.Title, g.Type, g.Category, g.Target, g.Current, g.Unit, g.Deadline,
		g.Progress, g.Completed, g.Difficulty, g.Priority, g.Description, g.UpdatedAt,
	))
}

func (r *PsqlRepo) Delete(ctx context.Context, id, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.goals.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM goal WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound(Resource, id)
	}
	return nil
}
