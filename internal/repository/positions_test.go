package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/yourusername/screening-api/internal/model"
)

var positionCols = []string{
	"id", "code", "title", "department", "location", "status", "job_description", "source_file",
	"word_count", "extracted_at", "created_by", "times_used", "candidates_analyzed", "last_used_at",
	"created_at", "updated_at",
}

func TestPositionRepoUpsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPositionRepo(db)

	existing := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO positions (.+) ON CONFLICT \(code\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "inserted"}).
			AddRow(existing.String(), now, now, false))

	p := &model.Position{ID: uuid.New(), Code: "DEV-01", Title: "Developer", Status: model.PositionActive, CreatedBy: "system"}
	inserted, err := repo.Upsert(context.Background(), p)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if inserted || p.ID != existing {
		t.Fatalf("expected existing row to be updated, got inserted=%v id=%s", inserted, p.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPositionRepoFindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPositionRepo(db)

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM positions WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(positionCols).AddRow(
			id.String(), "DEV-01", "Developer", "HR", "", "active", "jd text", "dev_01.pdf",
			2, now, "system", 4, 12, now, now, now,
		))
	mock.ExpectQuery(`SELECT (.+) FROM positions WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(positionCols))

	p, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.TimesUsed != 4 || p.CandidatesAnalyzed != 12 || p.LastUsedAt == nil || !p.LastUsedAt.Equal(now) {
		t.Fatalf("unexpected position: %+v", p)
	}

	missing, err := repo.FindByID(context.Background(), uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing position, got %+v %v", missing, err)
	}
}

func TestPositionRepoListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPositionRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM positions WHERE status = \$1 AND \(title ILIKE \$2 OR job_description ILIKE \$2\) ORDER BY last_used_at DESC NULLS LAST`).
		WithArgs("active", "%golang%").
		WillReturnRows(sqlmock.NewRows(positionCols).AddRow(
			uuid.NewString(), "DEV-01", "Golang Developer", "HR", "", "active", "jd", "",
			1, now, "system", 0, 0, nil, now, now,
		))

	positions, err := repo.List(context.Background(), model.PositionFilter{Status: "active", Search: " golang "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(positions) != 1 || positions[0].LastUsedAt != nil {
		t.Fatalf("unexpected positions: %+v", positions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPositionRepoRecordUsage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPositionRepo(db)

	id := uuid.New()
	mock.ExpectExec(`UPDATE positions SET times_used = times_used \+ 1`).
		WithArgs(id, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE positions SET times_used = times_used \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.RecordUsage(context.Background(), id, 3); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if err := repo.RecordUsage(context.Background(), uuid.New(), 1); err == nil {
		t.Fatalf("expected error for unknown position")
	}
}
