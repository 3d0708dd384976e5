package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"ingest_server/core/domain"
	"ingest_server/core/port/out"
)

// stageLabels maps an extracted teaching stage to the mailbox label the
// message gets filed under.
var stageLabels = map[string]string{
	domain.StageInfantil:   "Currículums/Infantil",
	domain.StagePrimaria:   "Currículums/Primaria",
	domain.StageSecundaria: "Curriculums/Secundària",
	domain.StageAltres:     "Curriculums",
}

// languageAliases folds the spellings candidates actually write (Catalan,
// Spanish, English and French variants, with and without accents) into one
// canonical name per language.
var languageAliases = map[string]string{
	"anglès": "Anglès", "angles": "Anglès", "anglés": "Anglès",
	"inglés": "Anglès", "ingles": "Anglès", "english": "Anglès", "anglais": "Anglès",
	"castellà": "Castellà", "castella": "Castellà", "castellano": "Castellà",
	"español": "Castellà", "espanol": "Castellà", "espanyol": "Castellà", "spanish": "Castellà",
	"català": "Català", "catala": "Català", "catalán": "Català", "catalan": "Català",
	"francès": "Francès", "frances": "Francès", "francés": "Francès",
	"french": "Francès", "français": "Francès",
}

// handleCV extracts candidate data from the first document attachment,
// upserts the candidate, archives the document and files the message
// under the stage labels.
func (s *Service) handleCV(ctx context.Context, msg *out.MailMessage) error {
	// A CV-classified message with nothing attached (an inline "see my
	// profile" mail, say) has no document to work on; skip it quietly.
	if len(msg.Attachments) == 0 {
		return nil
	}
	att := msg.Attachments[0]

	content, err := s.mailbox.GetAttachment(ctx, msg.ID, att.AttachmentID)
	if err != nil {
		return fmt.Errorf("fetch attachment %s: %w", att.Filename, err)
	}

	start := time.Now()
	extracted, err := s.ai.Extract(ctx, out.ExtractInput{
		MessageID: msg.ID,
		Filename:  att.Filename,
		MimeType:  att.MimeType,
		Content:   content,
		Subject:   msg.Subject,
		Body:      msg.Body,
	})
	if err != nil {
		return fmt.Errorf("extract candidate data: %w", err)
	}
	extractionMs := time.Since(start).Milliseconds()

	ext := extracted.Extraction
	if ext == nil || ext.Email == nil || *ext.Email == "" {
		return fmt.Errorf("No candidate email found in CV document (sender: %s)", msg.From)
	}

	candidate, err := s.upsertCandidate(ctx, ext)
	if err != nil {
		return err
	}

	if err := s.cands.ReplaceStages(ctx, candidate.ID, validStages(ext.Stages)); err != nil {
		return fmt.Errorf("replace stages: %w", err)
	}
	if err := s.cands.ReplaceLanguages(ctx, candidate.ID, normalizeLanguages(ext.Languages)); err != nil {
		return fmt.Errorf("replace languages: %w", err)
	}

	storagePath := fmt.Sprintf("%s/%d_%s", candidate.ID, time.Now().UnixMilli(), sanitizeFilename(att.Filename))
	if err := s.store.Upload(ctx, storagePath, content, att.MimeType); err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	if err := s.cands.InsertDocument(ctx, &domain.CandidateDocument{
		CandidateID: candidate.ID,
		FileName:    att.Filename,
		StoragePath: storagePath,
		ContentType: att.MimeType,
		SizeBytes:   int64(len(content)),
		IsLatest:    true,
	}); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	if err := s.cands.InsertEmail(ctx, &domain.CandidateEmail{
		CandidateID: candidate.ID,
		MessageID:   msg.ID,
		Direction:   domain.EmailInbound,
		Subject:     msg.Subject,
		FromEmail:   msg.From,
		ToEmails:    msg.To,
		BodyPreview: preview(msg.Body),
		SentDate:    msg.Date,
	}); err != nil {
		return fmt.Errorf("insert email: %w", err)
	}

	// Filing is cosmetic: a label failure must not fail the message.
	s.applyStageLabels(ctx, msg.ID, ext.Stages)

	if err := s.cands.InsertExtractionLog(ctx, &domain.ExtractionLog{
		MessageID:        msg.ID,
		CandidateID:      &candidate.ID,
		Model:            extracted.Model,
		PromptTokens:     extracted.PromptTokens,
		CompletionTokens: extracted.CompletionTokens,
		RawResponse:      extracted.RawResponse,
		DurationMs:       extractionMs,
	}); err != nil {
		return fmt.Errorf("insert extraction log: %w", err)
	}
	return nil
}

// upsertCandidate finds the candidate by extracted email, updating the
// profile in place for repeat applicants. A new CV supersedes all stored
// documents from earlier applications.
func (s *Service) upsertCandidate(ctx context.Context, ext *domain.CandidateExtraction) (*domain.Candidate, error) {
	existing, err := s.cands.GetByEmail(ctx, *ext.Email)
	if err != nil {
		return nil, fmt.Errorf("look up candidate: %w", err)
	}

	if existing != nil {
		existing.FirstName = ext.FirstName
		existing.LastName = ext.LastName
		existing.Phone = ext.Phone
		existing.DateOfBirth = ext.DateOfBirth
		existing.DateOfBirthApproximate = ext.DateOfBirthApproximate
		existing.EducationLevel = ext.EducationLevel
		existing.WorkExperienceSummary = ext.WorkExperienceSummary
		existing.TeachingMonths = ext.TeachingMonths
		existing.Specialty = ext.Specialty
		if err := s.cands.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update candidate: %w", err)
		}
		if err := s.cands.MarkDocumentsSuperseded(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("supersede documents: %w", err)
		}
		return existing, nil
	}

	candidate := &domain.Candidate{
		Email:                  strings.ToLower(*ext.Email),
		FirstName:              ext.FirstName,
		LastName:               ext.LastName,
		Phone:                  ext.Phone,
		DateOfBirth:            ext.DateOfBirth,
		DateOfBirthApproximate: ext.DateOfBirthApproximate,
		EducationLevel:         ext.EducationLevel,
		WorkExperienceSummary:  ext.WorkExperienceSummary,
		TeachingMonths:         ext.TeachingMonths,
		Specialty:              ext.Specialty,
	}
	if err := s.cands.Insert(ctx, candidate); err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	return candidate, nil
}

// applyStageLabels files the message under the mailbox labels for the
// extracted stages. Labels are resolved once per run; all errors here are
// logged and swallowed.
func (s *Service) applyStageLabels(ctx context.Context, messageID string, stages []string) {
	if s.labelIDs == nil {
		labels, err := s.mailbox.ListLabels(ctx)
		if err != nil {
			s.log.WithError(err).Warn("failed to list mailbox labels, skipping filing")
			s.labelIDs = map[string]string{}
		} else {
			s.labelIDs = make(map[string]string, len(labels))
			for _, l := range labels {
				s.labelIDs[l.Name] = l.ID
			}
		}
	}

	var ids []string
	for _, stage := range stages {
		name, ok := stageLabels[stage]
		if !ok {
			continue
		}
		if id, ok := s.labelIDs[name]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := s.mailbox.AddLabels(ctx, messageID, ids); err != nil {
		s.log.WithError(err).WithField("message_id", messageID).Warn("failed to apply labels")
	}
}

func validStages(stages []string) []string {
	var valid []string
	for _, stage := range stages {
		if _, ok := stageLabels[stage]; ok {
			valid = append(valid, stage)
		}
	}
	return valid
}

// normalizeLanguages canonicalizes language names via the alias table and
// drops duplicates; an unknown language keeps its name, capitalized.
func normalizeLanguages(langs []domain.ExtractedLanguage) []domain.ExtractedLanguage {
	seen := make(map[string]bool, len(langs))
	result := make([]domain.ExtractedLanguage, 0, len(langs))
	for _, l := range langs {
		name := strings.TrimSpace(l.Language)
		if name == "" {
			continue
		}
		canonical, ok := languageAliases[strings.ToLower(name)]
		if !ok {
			canonical = capitalize(name)
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		result = append(result, domain.ExtractedLanguage{Language: canonical, Level: l.Level})
	}
	return result
}

// capitalize title-cases a single word so casing variants of the same
// unknown language collapse to one spelling.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var (
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// sanitizeFilename makes an uploaded filename safe for use as a storage
// key: accents stripped, anything outside [a-zA-Z0-9._-] folded to an
// underscore.
func sanitizeFilename(name string) string {
	decomposed := norm.NFD.String(name)
	stripped := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, decomposed)
	safe := unsafeFileChars.ReplaceAllString(stripped, "_")
	return underscoreRuns.ReplaceAllString(safe, "_")
}
