package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ingest_server/core/domain"
)

// ===== Candidate Adapter =====

type CandidateAdapter struct {
	db *sqlx.DB
}

func NewCandidateAdapter(db *sqlx.DB) *CandidateAdapter {
	return &CandidateAdapter{db: db}
}

type candidateEntity struct {
	ID                     uuid.UUID      `db:"id"`
	Email                  string         `db:"email"`
	FirstName              sql.NullString `db:"first_name"`
	LastName               sql.NullString `db:"last_name"`
	Phone                  sql.NullString `db:"phone"`
	DateOfBirth            sql.NullString `db:"date_of_birth"`
	DateOfBirthApproximate bool           `db:"date_of_birth_approximate"`
	EducationLevel         sql.NullString `db:"education_level"`
	WorkExperienceSummary  sql.NullString `db:"work_experience_summary"`
	TeachingMonths         sql.NullInt64  `db:"teaching_months"`
	Specialty              sql.NullString `db:"specialty"`
	LastContactDate        sql.NullTime   `db:"last_contact_date"`
	LastResponseDate       sql.NullTime   `db:"last_response_date"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

const candidateColumns = `id, email, first_name, last_name, phone, date_of_birth,
	date_of_birth_approximate, education_level, work_experience_summary,
	teaching_months, specialty, last_contact_date, last_response_date,
	created_at, updated_at`

func (e *candidateEntity) toDomain() *domain.Candidate {
	c := &domain.Candidate{
		ID:                     e.ID,
		Email:                  e.Email,
		DateOfBirthApproximate: e.DateOfBirthApproximate,
		FirstName:              nullableString(e.FirstName),
		LastName:               nullableString(e.LastName),
		Phone:                  nullableString(e.Phone),
		DateOfBirth:            nullableString(e.DateOfBirth),
		EducationLevel:         nullableString(e.EducationLevel),
		WorkExperienceSummary:  nullableString(e.WorkExperienceSummary),
		Specialty:              nullableString(e.Specialty),
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
	if e.TeachingMonths.Valid {
		months := int(e.TeachingMonths.Int64)
		c.TeachingMonths = &months
	}
	if e.LastContactDate.Valid {
		c.LastContactDate = &e.LastContactDate.Time
	}
	if e.LastResponseDate.Valid {
		c.LastResponseDate = &e.LastResponseDate.Time
	}
	return c
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func (a *CandidateAdapter) GetByEmail(ctx context.Context, email string) (*domain.Candidate, error) {
	var e candidateEntity
	err := a.db.GetContext(ctx, &e,
		`SELECT `+candidateColumns+` FROM candidates WHERE LOWER(email) = LOWER($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.toDomain(), nil
}

func (a *CandidateAdapter) ListByEmails(ctx context.Context, emails []string) ([]*domain.Candidate, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}
	query, args, err := sqlx.In(
		`SELECT `+candidateColumns+` FROM candidates WHERE LOWER(email) IN (?)`, lowered)
	if err != nil {
		return nil, err
	}

	var entities []candidateEntity
	if err := a.db.SelectContext(ctx, &entities, a.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	candidates := make([]*domain.Candidate, len(entities))
	for i := range entities {
		candidates[i] = entities[i].toDomain()
	}
	return candidates, nil
}

func (a *CandidateAdapter) Insert(ctx context.Context, c *domain.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO candidates (id, email, first_name, last_name, phone, date_of_birth,
		        date_of_birth_approximate, education_level, work_experience_summary,
		        teaching_months, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.DateOfBirth,
		c.DateOfBirthApproximate, c.EducationLevel, c.WorkExperienceSummary,
		c.TeachingMonths, c.Specialty)
	return err
}

func (a *CandidateAdapter) Update(ctx context.Context, c *domain.Candidate) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE candidates SET
			first_name                = $2,
			last_name                 = $3,
			phone                     = $4,
			date_of_birth             = $5,
			date_of_birth_approximate = $6,
			education_level           = $7,
			work_experience_summary   = $8,
			teaching_months           = $9,
			specialty                 = $10,
			updated_at                = NOW()
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Phone, c.DateOfBirth,
		c.DateOfBirthApproximate, c.EducationLevel, c.WorkExperienceSummary,
		c.TeachingMonths, c.Specialty)
	return err
}

// ===== Stages and Languages =====

func (a *CandidateAdapter) ReplaceStages(ctx context.Context, candidateID uuid.UUID, stages []string) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate_stages WHERE candidate_id = $1`, candidateID); err != nil {
		return err
	}
	for _, stage := range stages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidate_stages (id, candidate_id, stage) VALUES ($1, $2, $3)`,
			uuid.New(), candidateID, stage); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (a *CandidateAdapter) ReplaceLanguages(ctx context.Context, candidateID uuid.UUID, langs []domain.ExtractedLanguage) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate_languages WHERE candidate_id = $1`, candidateID); err != nil {
		return err
	}
	for _, lang := range langs {
		var level *string
		if lang.Level != "" {
			level = &lang.Level
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO candidate_languages (id, candidate_id, language, level)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), candidateID, lang.Language, level); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ===== Documents =====

func (a *CandidateAdapter) MarkDocumentsSuperseded(ctx context.Context, candidateID uuid.UUID) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE candidate_documents SET is_latest = false
		WHERE candidate_id = $1 AND is_latest = true`, candidateID)
	return err
}

func (a *CandidateAdapter) InsertDocument(ctx context.Context, d *domain.CandidateDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO candidate_documents (id, candidate_id, file_name, storage_path,
		        content_type, size_bytes, is_latest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		d.ID, d.CandidateID, d.FileName, d.StoragePath, d.ContentType, d.SizeBytes, d.IsLatest)
	return err
}

// ===== Correspondence =====

func (a *CandidateAdapter) InsertEmail(ctx context.Context, e *domain.CandidateEmail) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO candidate_emails (id, candidate_id, message_id, direction, subject,
		        from_email, to_emails, body_preview, sent_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		e.ID, e.CandidateID, e.MessageID, e.Direction, e.Subject,
		e.FromEmail, pq.Array(e.ToEmails), e.BodyPreview, e.SentDate)
	return err
}

func (a *CandidateAdapter) UpdateLastContact(ctx context.Context, candidateID uuid.UUID, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE candidates SET last_contact_date = $1, updated_at = NOW() WHERE id = $2`,
		at, candidateID)
	return err
}

func (a *CandidateAdapter) UpdateLastResponse(ctx context.Context, candidateID uuid.UUID, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE candidates SET last_response_date = $1, updated_at = NOW() WHERE id = $2`,
		at, candidateID)
	return err
}

// ===== Extraction Audit Log =====

func (a *CandidateAdapter) InsertExtractionLog(ctx context.Context, l *domain.ExtractionLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO extraction_logs (id, message_id, candidate_id, model,
		        prompt_tokens, completion_tokens, raw_response, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		l.ID, l.MessageID, l.CandidateID, l.Model,
		l.PromptTokens, l.CompletionTokens, l.RawResponse, l.DurationMs)
	return err
}
