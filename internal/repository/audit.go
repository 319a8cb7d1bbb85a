package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/screening-api/internal/model"
)

const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 1000
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends an entry to the audit log, assigning its id and timestamp
func (r *AuditRepo) Record(ctx context.Context, e *model.AuditEntry) error {
	e.ID = uuid.New()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (id, candidate_id, candidate_filename, action, username, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.CandidateID, e.CandidateFilename, e.Action, e.Username, e.Reason).Scan(&e.Timestamp)
	if err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}

// List returns matching entries, newest first
func (r *AuditRepo) List(ctx context.Context, f model.AuditFilter) ([]model.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("username", f.Username)
	add("candidate_id", f.CandidateID)
	add("action", f.Action)

	query := `SELECT id, candidate_id, candidate_filename, action, username, reason, created_at FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, clampLimit(f.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.CandidateFilename, &e.Action, &e.Username, &e.Reason, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultAuditLimit
	case n > MaxAuditLimit:
		return MaxAuditLimit
	}
	return n
}
