// Package persistence implements the repository ports on PostgreSQL.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ingest_server/core/domain"
)

// ===== Student Adapter =====

type StudentAdapter struct {
	db *sqlx.DB
}

func NewStudentAdapter(db *sqlx.DB) *StudentAdapter {
	return &StudentAdapter{db: db}
}

type studentEntity struct {
	ID           uuid.UUID    `db:"id"`
	ClickeduID   int64        `db:"clickedu_id"`
	FirstName    string       `db:"first_name"`
	LastName     string       `db:"last_name"`
	ClassID      int          `db:"class_id"`
	ClassName    string       `db:"class_name"`
	IsActive     bool         `db:"is_active"`
	ListSyncedAt sql.NullTime `db:"list_synced_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (e *studentEntity) toDomain() *domain.Student {
	s := &domain.Student{
		ID:         e.ID,
		ClickeduID: e.ClickeduID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		ClassID:    e.ClassID,
		ClassName:  e.ClassName,
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.ListSyncedAt.Valid {
		s.ListSyncedAt = &e.ListSyncedAt.Time
	}
	return s
}

func (a *StudentAdapter) ListActive(ctx context.Context) ([]*domain.Student, error) {
	var entities []studentEntity
	err := a.db.SelectContext(ctx, &entities, `
		SELECT id, clickedu_id, first_name, last_name, class_id, class_name,
		       is_active, list_synced_at, created_at, updated_at
		FROM students
		WHERE is_active = true
		ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}

	students := make([]*domain.Student, len(entities))
	for i := range entities {
		students[i] = entities[i].toDomain()
	}
	return students, nil
}

// Upsert inserts or refreshes a student keyed by the portal id. Names and
// class follow the portal on every sync; the row id is stable.
func (a *StudentAdapter) Upsert(ctx context.Context, s *domain.ScrapedStudent, syncedAt time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO students (id, clickedu_id, first_name, last_name, class_id, class_name,
		                      is_active, list_synced_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7, NOW(), NOW())
		ON CONFLICT (clickedu_id) DO UPDATE SET
			first_name     = EXCLUDED.first_name,
			last_name      = EXCLUDED.last_name,
			class_id       = EXCLUDED.class_id,
			class_name     = EXCLUDED.class_name,
			is_active      = true,
			list_synced_at = EXCLUDED.list_synced_at,
			updated_at     = NOW()`,
		uuid.New(), s.ClickeduID, s.FirstName, s.LastName, s.ClassID, s.ClassName, syncedAt)
	return err
}

// DeactivateMissing marks every active student absent from the fetched
// roster as inactive. Rows are never deleted; historical records keep
// pointing at them.
func (a *StudentAdapter) DeactivateMissing(ctx context.Context, keep []int64) (int, error) {
	res, err := a.db.ExecContext(ctx, `
		UPDATE students
		SET is_active = false, updated_at = NOW()
		WHERE is_active = true AND clickedu_id != ALL($1)`,
		pq.Array(keep))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ===== School Year Adapter =====

type SchoolYearAdapter struct {
	db *sqlx.DB
}

func NewSchoolYearAdapter(db *sqlx.DB) *SchoolYearAdapter {
	return &SchoolYearAdapter{db: db}
}

type schoolYearEntity struct {
	ID        uuid.UUID `db:"id"`
	Label     string    `db:"label"`
	IsCurrent bool      `db:"is_current"`
}

func (a *SchoolYearAdapter) Current(ctx context.Context) (*domain.SchoolYear, error) {
	var e schoolYearEntity
	err := a.db.GetContext(ctx, &e, `
		SELECT id, label, is_current
		FROM school_years
		WHERE is_current = true`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("no current school year configured")
	}
	if err != nil {
		return nil, err
	}
	return &domain.SchoolYear{ID: e.ID, Label: e.Label, IsCurrent: e.IsCurrent}, nil
}
