// Package prompts assembles the French prompt texts sent to the language
// models. All templates are parsed once at package init; rendering only
// interpolates the per-request data.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/talentbase/nl2sql/src/models"
)

// SystemMessage frames every SQL generation conversation.
const SystemMessage = `Tu es un expert SQL spécialisé dans les bases de données RH (ressources humaines).
Tu traduis des questions en langage naturel en requêtes SQL MySQL valides.
Tu réponds UNIQUEMENT avec la requête SQL, sans explication ni formatage markdown.
Si la question ne peut pas être traduite en SQL avec le schéma fourni, réponds exactement: IMPOSSIBLE
Si la question demande une modification de données (INSERT, UPDATE, DELETE...), réponds exactement: READONLY_VIOLATION`

var sqlGenerationTmpl = template.Must(template.New("sql_generation").Parse(`Schéma de la base de données:
{{.Schema}}

{{if .SimilarExamples}}Exemples de traductions similaires:
{{.SimilarExamples}}
{{end}}Règles OBLIGATOIRES du framework:
1. Toute requête DOIT filtrer par utilisateur: WHERE alias.ID_USER = {{.UserIDPlaceholder}}
2. Toute requête DOIT joindre la table DEPOT avec un alias: FROM DEPOT d ou JOIN DEPOT d
3. Toute requête DOIT se terminer par les hashtags de traçabilité: #DEPOT_d# (un par table utilisée, plus #PERIODE# si la question porte sur une période)

{{if .PeriodContext}}Contexte temporel: {{.PeriodContext}}
{{end}}{{if .DepartmentContext}}Contexte organisationnel: {{.DepartmentContext}}
{{end}}Question: {{.Question}}

Requête SQL:`))

var semanticValidationTmpl = template.Must(template.New("semantic_validation").Parse(`Tu dois vérifier si une requête SQL répond correctement à une question posée en langage naturel.

Question: {{.Question}}

Requête SQL:
{{.SQL}}

La requête SQL répond-elle à la question posée ?
Réponds par un seul mot:
- OUI si la requête répond à la question
- NON si la requête ne répond pas à la question
- HORS SUJET si la question n'a aucun rapport avec une base de données RH`))

var explanationTmpl = template.Must(template.New("explanation").Parse(`Explique en français simple, pour un utilisateur non technique, ce que fait cette requête SQL:

{{.SQL}}

Question d'origine: {{.Question}}

Explication (2-3 phrases maximum):`))

var relevanceCheckTmpl = template.Must(template.New("relevance_check").Parse(`Tu es un filtre de pertinence pour un service de traduction de questions RH en SQL.
Le domaine couvert: employés, contrats, salaires, absences, congés, formations, entretiens, services, établissements.

Question: {{.Question}}

Cette question concerne-t-elle le domaine RH et peut-elle correspondre à une interrogation de base de données ?
Réponds par un seul mot: OUI ou NON`))

type sqlGenerationData struct {
	Schema            string
	Question          string
	SimilarExamples   string
	PeriodContext     string
	DepartmentContext string
	UserIDPlaceholder string
}

// RenderSQLGeneration builds the main generation prompt. similar holds up to
// topK retrieved examples; only the first three are embedded to keep the
// prompt small.
func RenderSQLGeneration(schema, question string, similar []models.SimilarQueryMatch, userIDPlaceholder string) (string, error) {
	if userIDPlaceholder == "" {
		userIDPlaceholder = "?"
	}
	data := sqlGenerationData{
		Schema:            schema,
		Question:          question,
		SimilarExamples:   FormatSimilarExamples(similar, 3),
		PeriodContext:     periodContext(question),
		DepartmentContext: departmentContext(question),
		UserIDPlaceholder: userIDPlaceholder,
	}
	return render(sqlGenerationTmpl, data)
}

// RenderSemanticValidation builds the OUI/NON/HORS SUJET judge prompt.
func RenderSemanticValidation(question, sql string) (string, error) {
	return render(semanticValidationTmpl, struct{ Question, SQL string }{question, sql})
}

// RenderExplanation builds the plain-language explanation prompt.
func RenderExplanation(question, sql string) (string, error) {
	return render(explanationTmpl, struct{ Question, SQL string }{question, sql})
}

// RenderRelevanceCheck builds the HR domain relevance gate prompt.
func RenderRelevanceCheck(question string) (string, error) {
	return render(relevanceCheckTmpl, struct{ Question string }{question})
}

// FormatSimilarExamples renders retrieved examples as a numbered block for
// prompt inclusion. Returns "" when there is nothing to show.
func FormatSimilarExamples(matches []models.SimilarQueryMatch, limit int) string {
	if len(matches) == 0 {
		return ""
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. Question: %s\n   SQL: %s\n", i+1, m.Question, m.SQL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendu du prompt %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

var periodKeywords = []string{"mois", "année", "annee", "trimestre", "semestre", "période", "periode", "depuis", "dernier", "dernière", "derniere", "cette semaine", "aujourd'hui"}

var departmentKeywords = []string{"service", "département", "departement", "équipe", "equipe", "établissement", "etablissement", "site", "agence"}

func periodContext(question string) string {
	q := strings.ToLower(question)
	for _, kw := range periodKeywords {
		if strings.Contains(q, kw) {
			return "la question porte sur une période, pense au hashtag #PERIODE#"
		}
	}
	return ""
}

func departmentContext(question string) string {
	q := strings.ToLower(question)
	for _, kw := range departmentKeywords {
		if strings.Contains(q, kw) {
			return "la question fait référence à une structure organisationnelle (service, établissement)"
		}
	}
	return ""
}
