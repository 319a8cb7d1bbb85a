package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/screening-api/internal/model"
)

const positionColumns = `id, code, title, department, location, status, job_description, source_file,
	word_count, extracted_at, created_by, times_used, candidates_analyzed, last_used_at, created_at, updated_at`

type PositionRepo struct {
	db *sql.DB
}

func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*model.Position, error) {
	var (
		p        model.Position
		lastUsed sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Title, &p.Department, &p.Location, &p.Status, &p.JobDescription, &p.SourceFile,
		&p.WordCount, &p.ExtractedAt, &p.CreatedBy, &p.TimesUsed, &p.CandidatesAnalyzed, &lastUsed,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		p.LastUsedAt = &t
	}
	return &p, nil
}

// Create inserts a new position
func (r *PositionRepo) Create(ctx context.Context, p *model.Position) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO positions (id, code, title, department, location, status, job_description,
		                       source_file, word_count, extracted_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, p.ID, p.Code, p.Title, p.Department, p.Location, p.Status, p.JobDescription,
		p.SourceFile, p.WordCount, p.ExtractedAt, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating position: %w", err)
	}
	return nil
}

// Upsert inserts p or, when its code already exists, refreshes the extracted
// text of the existing row. p.ID is set to the stored id.
func (r *PositionRepo) Upsert(ctx context.Context, p *model.Position) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO positions (id, code, title, department, location, status, job_description,
		                       source_file, word_count, extracted_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE
		SET job_description = EXCLUDED.job_description,
		    source_file = EXCLUDED.source_file,
		    word_count = EXCLUDED.word_count,
		    extracted_at = EXCLUDED.extracted_at,
		    updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`, p.ID, p.Code, p.Title, p.Department, p.Location, p.Status, p.JobDescription,
		p.SourceFile, p.WordCount, p.ExtractedAt, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upserting position: %w", err)
	}
	return inserted, nil
}

// FindByID returns nil when the position does not exist
func (r *PositionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Position, error) {
	p, err := scanPosition(r.db.QueryRowContext(ctx, `
		SELECT `+positionColumns+`
		FROM positions
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding position: %w", err)
	}
	return p, nil
}

// List returns positions matching f, most recently used first
func (r *PositionRepo) List(ctx context.Context, f model.PositionFilter) ([]model.Position, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Department != "" {
		args = append(args, f.Department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR job_description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + positionColumns + ` FROM positions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_used_at DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	positions := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		positions = append(positions, *p)
	}
	return positions, rows.Err()
}

// RecordUsage counts one more analysis against the position
func (r *PositionRepo) RecordUsage(ctx context.Context, id uuid.UUID, candidates int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE positions
		SET times_used = times_used + 1,
		    candidates_analyzed = candidates_analyzed + $2,
		    last_used_at = now(),
		    updated_at = now()
		WHERE id = $1
	`, id, candidates)
	if err != nil {
		return fmt.Errorf("updating position usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating position usage: position %s not found", id)
	}
	return nil
}
