package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

const profileColumns = `
	id, user_id, first_name, last_name, email, age, height, weight,
	fitness_level, bio, preferences, stats, created_at, updated_at`

// PsqlRepo keeps preferences and stats as jsonb documents next to the
// personal fields.
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

func scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	if err := row.Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Age, &p.Height, &p.Weight,
		&p.FitnessLevel, &p.Bio, &p.Preferences, &p.Stats, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PsqlRepo) Get(ctx context.Context, id, userID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("id", id))

	p, err := scanProfile(r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profile
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	return p, err
}

func (r *PsqlRepo) Update(ctx context.Context, id, userID string, mutate func(*Profile) error) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.update")
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

	p, err := scanProfile(tx.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profile
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.NotFound(Resource, id)
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(p); err != nil {
		return nil, err
	}
	p.Stamp(id, time.Time{}, r.now().UTC())

	return scanProfile(tx.QueryRow(ctx, `
		UPDATE profile SET
			first_name = $3, last_name = $4, email = $5, age = $6, height = $7, weight = $8,
			fitness_level = $9, bio = $10, preferences = $11, stats = $12, updated_at = $13
		WHERE id = $1 AND user_id = $2
		RETURNING `+profileColumns,
		id, userID,
		p.FirstName, p.LastName, p.Email, p.Age, p.Height, p.Weight,
		p.FitnessLevel, p.Bio, p.Preferences, p.Stats, p.UpdatedAt,
	))
}

func (r *PsqlRepo) Insert(ctx context.Context, profile Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.insert")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	now := r.now().UTC()
	profile.Stamp(profile.ID, now, now)

	_, err = r.db.Exec(ctx, `
		INSERT INTO profile (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`,
		profile.ID, profile.UserID, profile.FirstName, profile.LastName, profile.Email,
		profile.Age, profile.Height, profile.Weight, profile.FitnessLevel, profile.Bio,
		profile.Preferences, profile.Stats, profile.CreatedAt, profile.UpdatedAt,
	)
	return err
}
