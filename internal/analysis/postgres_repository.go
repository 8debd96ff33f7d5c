package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grownex/grownex/internal/soil"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Recommendation lists are stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL analysis repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgSelectColumns = `
	id, user_id,
	land_area, location, soil_type, irrigation,
	ph_level, nitrogen, phosphorus, potassium, organic_carbon, zinc,
	soil_score, breakdown, fertilizers, pesticides, recommended_crops,
	created_at, updated_at
`

// Get retrieves an analysis by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Analysis, error) {
	query := `SELECT ` + pgSelectColumns + ` FROM soil_analyses WHERE id = $1`

	a, err := scanPostgresAnalysis(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanPostgresAnalysis(row rowScanner) (*Analysis, error) {
	var (
		a        Analysis
		userID   *string
		soilType string
		irrig    string
		derived  derivedColumns
	)

	err := row.Scan(
		&a.ID,
		&userID,
		&a.Measurement.LandArea,
		&a.Measurement.Location,
		&soilType,
		&irrig,
		&a.Measurement.PH,
		&a.Measurement.Nitrogen,
		&a.Measurement.Phosphorus,
		&a.Measurement.Potassium,
		&a.Measurement.OrganicCarbon,
		&a.Measurement.Zinc,
		&a.Score,
		&derived.breakdown,
		&derived.fertilizers,
		&derived.pesticides,
		&derived.crops,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.UserID = derefString(userID)
	a.Measurement.SoilType = soil.SoilType(soilType)
	a.Measurement.Irrigation = soil.Irrigation(irrig)
	if err := derived.decodeInto(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns analyses newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := normalizeLimit(opts.Limit)
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT ` + pgSelectColumns + `
		FROM soil_analyses
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR (created_at, id) < (
		      SELECT created_at, id FROM soil_analyses WHERE id = $2
		  ))
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, opts.UserID, opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Analysis
	for rows.Next() {
		a, err := scanPostgresAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// ListIDs returns the IDs of every stored analysis.
func (r *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM soil_analyses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Create stores a new analysis.
func (r *PostgresRepository) Create(ctx context.Context, a *Analysis) error {
	derived, err := encodeDerived(a)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO soil_analyses (
			id, user_id,
			land_area, location, soil_type, irrigation,
			ph_level, nitrogen, phosphorus, potassium, organic_carbon, zinc,
			soil_score, breakdown, fertilizers, pesticides, recommended_crops,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	m := a.Measurement
	_, err = r.pool.Exec(ctx, query,
		a.ID,
		nullableString(a.UserID),
		m.LandArea,
		m.Location,
		string(m.SoilType),
		string(m.Irrigation),
		m.PH,
		m.Nitrogen,
		m.Phosphorus,
		m.Potassium,
		m.OrganicCarbon,
		m.Zinc,
		a.Score,
		derived.breakdown,
		derived.fertilizers,
		derived.pesticides,
		derived.crops,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// Update replaces an existing analysis.
func (r *PostgresRepository) Update(ctx context.Context, a *Analysis) error {
	derived, err := encodeDerived(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE soil_analyses SET
			land_area = $2,
			location = $3,
			soil_type = $4,
			irrigation = $5,
			ph_level = $6,
			nitrogen = $7,
			phosphorus = $8,
			potassium = $9,
			organic_carbon = $10,
			zinc = $11,
			soil_score = $12,
			breakdown = $13,
			fertilizers = $14,
			pesticides = $15,
			recommended_crops = $16,
			updated_at = $17
		WHERE id = $1
	`

	m := a.Measurement
	result, err := r.pool.Exec(ctx, query,
		a.ID,
		m.LandArea,
		m.Location,
		string(m.SoilType),
		string(m.Irrigation),
		m.PH,
		m.Nitrogen,
		m.Phosphorus,
		m.Potassium,
		m.OrganicCarbon,
		m.Zinc,
		a.Score,
		derived.breakdown,
		derived.fertilizers,
		derived.pesticides,
		derived.crops,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// UpdateResult writes the derived columns of a if updated_at is unchanged.
func (r *PostgresRepository) UpdateResult(ctx context.Context, a *Analysis, prevUpdatedAt time.Time) error {
	derived, err := encodeDerived(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE soil_analyses SET
			soil_score = $3,
			breakdown = $4,
			fertilizers = $5,
			pesticides = $6,
			recommended_crops = $7,
			updated_at = $8
		WHERE id = $1 AND updated_at = $2
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID,
		prevUpdatedAt,
		a.Score,
		derived.breakdown,
		derived.fertilizers,
		derived.pesticides,
		derived.crops,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrAnalysisChanged
	}
	return nil
}

// Delete removes an analysis.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM soil_analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// Ping checks the connection pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
