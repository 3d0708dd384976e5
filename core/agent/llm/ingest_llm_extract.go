package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"ingest_server/core/domain"
	"ingest_server/pkg/apperr"
)

const extractionSystemPrompt = `Ets un expert en extracció de dades de CVs per a l'Escola el Turó.

REGLES D'ETAPA (MOLT IMPORTANT):
Determina l'etapa EXCLUSIVAMENT per la FORMACIÓ ACADÈMICA REGLADA del candidat. NO et fiïs de la descripció personal ni experiència laboral.
- Grau/Diplomatura/Llicenciatura de Mestre d'Educació INFANTIL → etapa: ["infantil"]
- Grau/Diplomatura/Llicenciatura de Mestre d'Educació PRIMÀRIA → etapa: ["primaria"]
- Grau/Diplomatura/Llicenciatura de Mestre d'Educació Infantil I Primària (doble) → etapa: ["infantil","primaria"]
- Màster en Formació del Professorat (de Secundària) → etapa: ["secundaria"]
- CFGS (Cicle Formatiu de Grau Superior) d'Educació Infantil (NO és universitari) → etapa: ["altres"]
- Si té un CFGS i també un Grau/Diplomatura/Llicenciatura, la carrera universitària té prioritat.
- Si no encaixa en cap dels anteriors → etapa: ["altres"]

ESPECIALITAT (només per secundària):
Si l'etapa és "secundaria", extreu l'especialitat del Màster o de la formació. Especialitats comunes: Història, Filosofia, Educació Física, Humanitats, Biologia, Àmbit Científic, Ciències Socials, Tecnologia, Llengua i Literatura, Anglès, Matemàtiques.

MESOS D'EXPERIÈNCIA DOCENT (teachingMonths):
Compta NOMÉS els mesos treballant com a MESTRE/PROFESSOR/A en un col·legi, escola o institut (educació reglada).
NO comptis: pràctiques, monitoratge, esplais, extraescolars, menjadors, ludoteques, casals, activitats de lleure ni altres treballs no vinculats a docència reglada.
Si el candidat ha treballat en 2 centres en paral·lel durant el mateix període, els mesos solapats compten UNA SOLA vegada. Calcula la unió dels períodes, no la suma.
Exemple: Centre A (set 2020 - jun 2023) + Centre B (set 2021 - jun 2022) = 34 mesos (set 2020 a jun 2023), NO 45.
Si no hi ha experiència docent reglada, teachingMonths = 0.

DATA DE NAIXEMENT:
- Si el CV indica la data de naixement, utilitza-la (dateOfBirthApproximate: false).
- Si NO la indica, infereix-la a partir de l'any de finalització de la primera carrera universitària o formació reglada, assumint que es finalitza als 22 anys. Exemple: si va acabar el Grau el 2020, data de naixement estimada = 1998-01-01 (dateOfBirthApproximate: true).
- Si no hi ha cap dada per inferir-la, deixa dateOfBirth a null.

Nivells idiomes: "nadiu","alt","mitja","basic".
Respon en JSON: {"firstName":null|str,"lastName":null|str,"email":"...","phone":null|str,"dateOfBirth":null|"YYYY-MM-DD","dateOfBirthApproximate":bool,"educationLevel":null|str,"workExperienceSummary":null|str,"teachingMonths":null|num,"stages":[],"specialty":null|str,"languages":[{"language":"...","level":"..."}]}`

// ExtractionOutcome is the parsed profile plus call metadata.
type ExtractionOutcome struct {
	Extraction       *domain.CandidateExtraction
	Model            string
	PromptTokens     int
	CompletionTokens int
	RawResponse      string
}

// ExtractCandidate sends a CV document inline with the email context and
// parses the structured profile out of the response.
func (c *Client) ExtractCandidate(ctx context.Context, docContent []byte, mimeType, subject, body string) (*ExtractionOutcome, error) {
	userMsg := fmt.Sprintf("Document adjunt (%s, base64):\n%s\n\nContext email — Assumpte: %s\nCos: %s\n\nExtreu les dades del candidat.",
		mimeType, base64.StdEncoding.EncodeToString(docContent), subject, truncateBody(body, 1000))

	resp, err := c.completeWithSystem(ctx, c.extractModel, extractionSystemPrompt, userMsg)
	if err != nil {
		return nil, apperr.ExternalError("openai extract", err)
	}

	var extraction domain.CandidateExtraction
	if err := parseJSONResponse(resp.Content, &extraction); err != nil {
		return nil, err
	}

	return &ExtractionOutcome{
		Extraction:       &extraction,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		RawResponse:      resp.Content,
	}, nil
}
