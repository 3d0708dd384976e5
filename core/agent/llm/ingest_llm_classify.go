package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"ingest_server/core/domain"
	"ingest_server/pkg/apperr"
)

const classificationSystemPrompt = `Ets un assistent que classifica emails del compte de correu a8021193@xtec.cat de l'Escola el Turó.
Cada email inclou la DIRECCIÓ (REBUT o ENVIAT) i el nombre de destinataris BCC/CCO.

Els currículums poden arribar per 3 vies:
1. FORMULARI WEB: remitent email@escolaelturo.cat, assumpte comença per "Escola El Turó - Curriculum". Sempre són CVs.
2. DIRECTE DEL CANDIDAT: una persona envia el seu CV per correu (pot tenir qualsevol assumpte).
3. REENVIO INTERN: un altre correu de l'escola (direcció@escolaelturo.cat, secretaria, etc.) reenvia un CV que li ha arribat per error.

Classifica cada email en:
- "cv": qualsevol de les 3 vies anteriors (REBUT). Indicadors: adjunt PDF/DOCX, assumpte amb "curriculum"/"CV"/"candidatura", cos amb dades personals o motivació laboral.
- "job_offer": email ENVIAT des de l'escola que ofereix una posició a MÚLTIPLES candidats simultàniament (via BCC/CCO). Indicadors: text genèric sense nom propi del destinatari, demana disponibilitat, parla de cobrir una plaça/substitució, BCC >= 2. Una resposta individual de l'escola a un sol candidat (Re:...) NO és job_offer.
- "response": resposta d'un candidat a un email previ (REBUT, sense CV adjunt, dins un fil de conversa existent).
- "other": qualsevol altre, inclòs respostes individuals de l'escola a un candidat concret (Re:...), convocatòries d'entrevista, confirmacions, seguiment de processos, notificacions, newsletters, administratiu.

Respon NOMÉS en JSON: {"classification":"cv"|"job_offer"|"response"|"other","confidence":0-1,"reasoning":"..."}`

// ClassifyEmail asks the model which pipeline branch an email belongs to.
// A response without parseable JSON or with an unknown category is a hard
// error; the caller records the message as failed rather than guessing.
func (c *Client) ClassifyEmail(ctx context.Context, subject, body, from string, to []string, bccCount int, attachmentNames []string, isSent bool) (*domain.Classification, error) {
	direction := "REBUT"
	if isSent {
		direction = "ENVIAT"
	}
	bccInfo := "BCC/CCO: 0"
	if bccCount > 0 {
		bccInfo = fmt.Sprintf("BCC/CCO: %d destinataris", bccCount)
	}
	adjunts := "No"
	if len(attachmentNames) > 0 {
		adjunts = strings.Join(attachmentNames, ", ")
	}

	userMsg := fmt.Sprintf("Direcció: %s\nAssumpte: %s\nDe: %s\nA: %s\n%s\nAdjunts: %s\n\nCos:\n%s",
		direction, subject, from, strings.Join(to, ", "), bccInfo, adjunts, truncateBody(body, 2000))

	resp, err := c.completeWithSystem(ctx, c.classifyModel, classificationSystemPrompt, userMsg)
	if err != nil {
		return nil, apperr.ExternalError("openai classify", err)
	}

	var result domain.Classification
	if err := parseJSONResponse(resp.Content, &result); err != nil {
		return nil, err
	}
	if !domain.ValidClassification(result.Classification) {
		return nil, apperr.ExtractionFailed(
			fmt.Sprintf("unknown classification %q", result.Classification), nil)
	}
	return &result, nil
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseJSONResponse pulls the first JSON object out of a model response,
// tolerating markdown fences and surrounding prose.
func parseJSONResponse(resp string, v any) error {
	s := strings.TrimSpace(resp)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	block := jsonBlockRe.FindString(s)
	if block == "" {
		return apperr.ExtractionFailed("no JSON in model response", nil)
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return apperr.ExtractionFailed("malformed JSON in model response", err)
	}
	return nil
}
