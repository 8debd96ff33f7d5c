package analysis

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/grownex/grownex/internal/soil"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository is a SQLite implementation of Repository for single-node
// deployments. Recommendation lists are stored as JSON text.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open database whose schema
// has already been applied (see database.OpenSQLite).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteSelectColumns = `
	id, user_id,
	land_area, location, soil_type, irrigation,
	ph_level, nitrogen, phosphorus, potassium, organic_carbon, zinc,
	soil_score, breakdown, fertilizers, pesticides, recommended_crops,
	created_at, updated_at
`

// Get retrieves an analysis by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Analysis, error) {
	query := `SELECT ` + sqliteSelectColumns + ` FROM soil_analyses WHERE id = ?`

	a, err := scanSQLiteAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanSQLiteAnalysis(row rowScanner) (*Analysis, error) {
	var (
		a         Analysis
		userID    sql.NullString
		soilType  string
		irrig     string
		derived   derivedColumns
		createdAt string
		updatedAt string
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
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.UserID = userID.String
	a.Measurement.SoilType = soil.SoilType(soilType)
	a.Measurement.Irrigation = soil.Irrigation(irrig)
	if a.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, err
	}
	if err := derived.decodeInto(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// List returns analyses newest first.
func (r *SQLiteRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := normalizeLimit(opts.Limit)
	fetchLimit := limit + 1

	query := `
		SELECT ` + sqliteSelectColumns + `
		FROM soil_analyses
		WHERE (?1 = '' OR user_id = ?1)
		  AND (?2 = '' OR (created_at, id) < (
		      SELECT created_at, id FROM soil_analyses WHERE id = ?2
		  ))
		ORDER BY created_at DESC, id DESC
		LIMIT ?3
	`

	rows, err := r.db.QueryContext(ctx, query, opts.UserID, opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Analysis
	for rows.Next() {
		a, err := scanSQLiteAnalysis(rows)
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
func (r *SQLiteRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM soil_analyses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create stores a new analysis.
func (r *SQLiteRepository) Create(ctx context.Context, a *Analysis) error {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	m := a.Measurement
	_, err = r.db.ExecContext(ctx, query,
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
		string(derived.breakdown),
		string(derived.fertilizers),
		string(derived.pesticides),
		string(derived.crops),
		sqliteTime(a.CreatedAt),
		sqliteTime(a.UpdatedAt),
	)
	return err
}

// Update replaces an existing analysis.
func (r *SQLiteRepository) Update(ctx context.Context, a *Analysis) error {
	derived, err := encodeDerived(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE soil_analyses SET
			land_area = ?,
			location = ?,
			soil_type = ?,
			irrigation = ?,
			ph_level = ?,
			nitrogen = ?,
			phosphorus = ?,
			potassium = ?,
			organic_carbon = ?,
			zinc = ?,
			soil_score = ?,
			breakdown = ?,
			fertilizers = ?,
			pesticides = ?,
			recommended_crops = ?,
			updated_at = ?
		WHERE id = ?
	`

	m := a.Measurement
	result, err := r.db.ExecContext(ctx, query,
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
		string(derived.breakdown),
		string(derived.fertilizers),
		string(derived.pesticides),
		string(derived.crops),
		sqliteTime(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateResult writes the derived columns of a if updated_at is unchanged.
func (r *SQLiteRepository) UpdateResult(ctx context.Context, a *Analysis, prevUpdatedAt time.Time) error {
	derived, err := encodeDerived(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE soil_analyses SET
			soil_score = ?,
			breakdown = ?,
			fertilizers = ?,
			pesticides = ?,
			recommended_crops = ?,
			updated_at = ?
		WHERE id = ? AND updated_at = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		a.Score,
		string(derived.breakdown),
		string(derived.fertilizers),
		string(derived.pesticides),
		string(derived.crops),
		sqliteTime(a.UpdatedAt),
		a.ID,
		sqliteTime(prevUpdatedAt),
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAnalysisChanged
	}
	return nil
}

// Delete removes an analysis.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM soil_analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// Ping checks the database handle.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Ensure SQLiteRepository implements Repository interface.
var _ Repository = (*SQLiteRepository)(nil)
