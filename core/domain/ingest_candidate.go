package domain

import (
	"time"

	"github.com/google/uuid"
)

// Email classification categories.
const (
	ClassificationCV       = "cv"
	ClassificationJobOffer = "job_offer"
	ClassificationResponse = "response"
	ClassificationOther    = "other"
)

// Classification is the AI verdict for one email.
type Classification struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// ValidClassification reports whether c is one of the four known categories.
func ValidClassification(c string) bool {
	switch c {
	case ClassificationCV, ClassificationJobOffer, ClassificationResponse, ClassificationOther:
		return true
	}
	return false
}

// Teaching stages a candidate can apply for.
const (
	StageInfantil   = "infantil"
	StagePrimaria   = "primaria"
	StageSecundaria = "secundaria"
	StageAltres     = "altres"
)

// Candidate is a job applicant, keyed by the email address extracted from
// their CV (not the sender address, which may belong to a forwarder).
type Candidate struct {
	ID                     uuid.UUID  `json:"id"`
	Email                  string     `json:"email"`
	FirstName              *string    `json:"first_name,omitempty"`
	LastName               *string    `json:"last_name,omitempty"`
	Phone                  *string    `json:"phone,omitempty"`
	DateOfBirth            *string    `json:"date_of_birth,omitempty"`
	DateOfBirthApproximate bool       `json:"date_of_birth_approximate"`
	EducationLevel         *string    `json:"education_level,omitempty"`
	WorkExperienceSummary  *string    `json:"work_experience_summary,omitempty"`
	TeachingMonths         *int       `json:"teaching_months,omitempty"`
	Specialty              *string    `json:"specialty,omitempty"`
	LastContactDate        *time.Time `json:"last_contact_date,omitempty"`
	LastResponseDate       *time.Time `json:"last_response_date,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// CandidateStage links a candidate to one stage they can teach.
type CandidateStage struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Stage       string    `json:"stage"`
}

// CandidateLanguage is one language a candidate speaks, with a free-form
// level ("nadiu", "alt", "mitja", "basic").
type CandidateLanguage struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Language    string    `json:"language"`
	Level       *string   `json:"level,omitempty"`
}

// CandidateDocument is a stored CV file. Only the newest document per
// candidate has IsLatest set.
type CandidateDocument struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"storage_path"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	IsLatest    bool      `json:"is_latest"`
	CreatedAt   time.Time `json:"created_at"`
}

// Email correspondence direction.
const (
	EmailInbound  = "inbound"
	EmailOutbound = "outbound"
)

// CandidateEmail is one correspondence entry in a candidate's history.
type CandidateEmail struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	MessageID   string    `json:"message_id"`
	Direction   string    `json:"direction"`
	Subject     string    `json:"subject"`
	FromEmail   string    `json:"from_email"`
	ToEmails    []string  `json:"to_emails"`
	BodyPreview string    `json:"body_preview"`
	SentDate    time.Time `json:"sent_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// JobOffer is a sent mass-mailing offering a position, with its BCC
// recipients recorded whether or not they matched known candidates.
type JobOffer struct {
	ID            uuid.UUID `json:"id"`
	MessageID     string    `json:"message_id"`
	Subject       string    `json:"subject"`
	BodyPreview   string    `json:"body_preview"`
	SentDate      time.Time `json:"sent_date"`
	BccRecipients []string  `json:"bcc_recipients,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExtractedLanguage is one language entry in the AI extraction output.
type ExtractedLanguage struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// CandidateExtraction is the structured profile the AI pulls out of a CV
// document. Field semantics follow the extraction prompt contract.
type CandidateExtraction struct {
	FirstName              *string             `json:"firstName"`
	LastName               *string             `json:"lastName"`
	Email                  *string             `json:"email"`
	Phone                  *string             `json:"phone"`
	DateOfBirth            *string             `json:"dateOfBirth"`
	DateOfBirthApproximate bool                `json:"dateOfBirthApproximate"`
	EducationLevel         *string             `json:"educationLevel"`
	WorkExperienceSummary  *string             `json:"workExperienceSummary"`
	TeachingMonths         *int                `json:"teachingMonths"`
	Stages                 []string            `json:"stages"`
	Specialty              *string             `json:"specialty"`
	Languages              []ExtractedLanguage `json:"languages"`
}

// ExtractionLog is the audit row for one AI extraction call, keyed by the
// provider message that triggered it.
type ExtractionLog struct {
	ID               uuid.UUID `json:"id"`
	MessageID        string    `json:"message_id"`
	CandidateID      *uuid.UUID `json:"candidate_id,omitempty"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	RawResponse      string    `json:"raw_response"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
