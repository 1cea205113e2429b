package workouts

import (
	"context"
	"encoding/json"
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

const workoutColumns = `
	id, user_id, name, type, duration, calories, date, notes, completed, exercises, created_at, updated_at`

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

func scanWorkout(row pgx.Row) (*Workout, error) {
	w := &Workout{}
	var exercises []byte
	if err := row.Scan(
		&w.ID, &w.UserID, &w.Name, &w.Type, &w.Duration, &w.Calories, &w.Date, &w.Notes,
		&w.Completed, &exercises, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}

	w.Exercises = []Exercise{}
	if len(exercises) > 0 {
		if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal exercises: %w", err)
		}
	}
	return w, nil
}

func marshalExercises(exercises []Exercise) ([]byte, error) {
	if exercises == nil {
		exercises = []Exercise{}
	}
	return json.Marshal(exercises)
}

func (r *PsqlRepo) List(ctx context.Context, userID string) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user-id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE user_id = $1
		ORDER BY seq
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]Workout, 0)
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}

func (r *PsqlRepo) Create(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.create")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	now := r.now().UTC()
	workout.Stamp(uuid.NewString(), now, now)

	exercises, err := marshalExercises(workout.Exercises)
	if err != nil {
		return nil, err
	}

	return scanWorkout(r.db.QueryRow(ctx, `
		INSERT INTO workout (`+workoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+workoutColumns,
		workout.ID, workout.UserID, workout.Name, workout.Type, workout.Duration, workout.Calories,
		workout.Date, workout.Notes, workout.Completed, exercises, workout.CreatedAt, workout.UpdatedAt,
	))
}

func (r *PsqlRepo) Get(ctx context.Context, id, userID string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	w, err := scanWorkout(r.db.QueryRow(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	return w, err
}

func (r *PsqlRepo) Update(ctx context.Context, id, userID string, mutate func(*Workout) error) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
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

	w, err := scanWorkout(tx.QueryRow(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(w); err != nil {
		return nil, err
	}
	w.Stamp(id, time.Time{}, r.now().UTC())

	exercises, err := marshalExercises(w.Exercises)
	if err != nil {
		return nil, err
	}

	return scanWorkout(tx.QueryRow(ctx, `
		UPDATE workout SET
			name = $3, type = $4, duration = $5, calories = $6, date = $7, notes = $8,
			completed = $9, exercises = $10, updated_at = $11
		WHERE id = $1 AND user_id = $2
		RETURNING `+workoutColumns,
		id, userID,
		w.Name, w.Type, w.Duration, w.Calories, w.Date, w.Notes, w.Completed, exercises, w.UpdatedAt,
	))
}

func (r *PsqlRepo) Delete(ctx context.Context, id, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM workout WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound(Resource, id)
	}
	return nil
}
