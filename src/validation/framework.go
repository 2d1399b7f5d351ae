// Package validation implements the structural, security and semantic checks
// applied to generated SQL before it is returned to a caller.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/talentbase/nl2sql/src/models"
)

// The framework demands four structural properties of every query:
// a per-user filter, the DEPOT join table with an alias, trailing #NAME#
// traceability tags and a read-only SELECT statement.
var (
	userFilterRe  = regexp.MustCompile(`(?i)\b\w+\.ID_USER\s*=\s*\?`)
	depotAliasRe  = regexp.MustCompile(`(?i)\bDEPOT\s+(?:AS\s+)?(\w+)`)
	factsAliasRe  = regexp.MustCompile(`(?i)\bFACTS\s+(?:AS\s+)?(\w+)`)
	hashtagRe     = regexp.MustCompile(`#(\w+)#`)
	joinDepotRe   = regexp.MustCompile(`(?i)\bJOIN\s+DEPOT\b`)
	whereClauseRe = regexp.MustCompile(`(?i)\bWHERE\b`)
	selectLeadRe  = regexp.MustCompile(`(?i)^\s*SELECT\b`)
	clauseBreakRe = regexp.MustCompile(`(?i)\b(GROUP\s+BY|ORDER\s+BY|LIMIT)\b`)
	periodWordRe  = regexp.MustCompile(`(?i)\b(PERIODE|DATE|MOIS|ANNEE)\w*`)
)

// reservedAlias filters regex captures that are SQL keywords rather than
// real aliases ("JOIN DEPOT ON ..." captures ON).
var reservedAlias = map[string]bool{
	"ON": true, "WHERE": true, "SET": true, "AS": true, "JOIN": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "OUTER": true, "CROSS": true,
	"GROUP": true, "ORDER": true, "LIMIT": true, "HAVING": true, "UNION": true,
	"AND": true, "OR": true, "NOT": true, "USING": true,
}

type FrameworkValidator struct{}

func NewFrameworkValidator() *FrameworkValidator {
	return &FrameworkValidator{}
}

// Analyze extracts every structural fact about the SQL that validation and
// suggestion generation need. Pure, no side effects.
func (v *FrameworkValidator) Analyze(sql string) models.FrameworkElements {
	depotAliases := extractAliases(depotAliasRe, sql)
	factsAliases := extractAliases(factsAliasRe, sql)

	var foundTags []string
	hasDepotTag, hasFactsTag, hasPeriodTag := false, false, false
	for _, m := range hashtagRe.FindAllStringSubmatch(sql, -1) {
		tag := m[1]
		foundTags = append(foundTags, tag)
		upper := strings.ToUpper(tag)
		switch {
		case strings.HasPrefix(upper, "DEPOT"):
			hasDepotTag = true
		case strings.HasPrefix(upper, "FACTS"):
			hasFactsTag = true
		case upper == "PERIODE":
			hasPeriodTag = true
		}
	}

	return models.FrameworkElements{
		HasUserFilter:    userFilterRe.MatchString(sql),
		HasDepotTable:    len(depotAliases) > 0,
		HasHashtags:      len(foundTags) > 0,
		IsSelectQuery:    selectLeadRe.MatchString(sql),
		HasWhereClause:   whereClauseRe.MatchString(sql),
		HasJoinDepot:     joinDepotRe.MatchString(sql),
		DepotAliases:     depotAliases,
		FactsAliases:     factsAliases,
		FoundHashtags:    foundTags,
		HasDepotHashtag:  hasDepotTag,
		HasFactsHashtag:  hasFactsTag,
		HasPeriodHashtag: hasPeriodTag,
	}
}

// Validate reports compliance along with the first missing rule in priority
// order. The full element breakdown is returned for callers that want to
// list every gap.
func (v *FrameworkValidator) Validate(sql string) (bool, string, models.FrameworkElements) {
	elements := v.Analyze(sql)
	switch {
	case !elements.HasUserFilter:
		return false, "Filtre utilisateur manquant: toute requête doit contenir WHERE alias.ID_USER = ?", elements
	case !elements.HasDepotTable:
		return false, "Table DEPOT manquante: toute requête doit joindre la table DEPOT avec un alias", elements
	case !elements.HasHashtags:
		return false, "Hashtags de traçabilité manquants: la requête doit se terminer par au moins un tag #NOM#", elements
	case !elements.IsSelectQuery:
		return false, "Seules les requêtes SELECT sont autorisées", elements
	}
	return true, "Requête conforme au framework", elements
}

// AutoFix applies one deterministic corrective pass: a missing user filter is
// synthesized from the first DEPOT alias and missing trailing tags are
// appended. Compliant input is returned unchanged. Without any DEPOT alias
// there is nothing to anchor a fix to and a FrameworkError is returned.
func (v *FrameworkValidator) AutoFix(sql string) (string, error) {
	compliant, _, elements := v.Validate(sql)
	if compliant {
		return sql, nil
	}
	if len(elements.DepotAliases) == 0 {
		return "", &models.FrameworkError{
			Message: "correction automatique impossible: aucun alias de la table DEPOT trouvé",
			SQL:     sql,
		}
	}

	fixed := sql
	if !elements.HasUserFilter {
		fixed = insertUserFilter(fixed, elements.DepotAliases[0], elements.HasWhereClause)
	}
	fixed = appendMissingTags(fixed, v.Analyze(fixed))
	return fixed, nil
}

// Suggestions renders one actionable remediation line per missing element.
func (v *FrameworkValidator) Suggestions(elements models.FrameworkElements) []string {
	var out []string
	if !elements.HasUserFilter {
		alias := "d"
		if len(elements.DepotAliases) > 0 {
			alias = elements.DepotAliases[0]
		}
		out = append(out, fmt.Sprintf("Ajouter le filtre utilisateur: WHERE %s.ID_USER = ?", alias))
	}
	if !elements.HasDepotTable {
		out = append(out, "Joindre la table DEPOT avec un alias: JOIN DEPOT d ON ...")
	}
	if !elements.HasHashtags {
		out = append(out, "Terminer la requête par les hashtags de traçabilité: #DEPOT_d#")
	}
	if !elements.IsSelectQuery {
		out = append(out, "Réécrire la requête en SELECT: les écritures sont interdites")
	}
	return out
}

func extractAliases(re *regexp.Regexp, sql string) []string {
	var aliases []string
	seen := map[string]bool{}
	for _, m := range re.FindAllStringSubmatch(sql, -1) {
		alias := m[1]
		if reservedAlias[strings.ToUpper(alias)] || seen[alias] {
			continue
		}
		seen[alias] = true
		aliases = append(aliases, alias)
	}
	return aliases
}

// insertUserFilter adds the alias.ID_USER predicate. With an existing WHERE
// the predicate is AND-prefixed into it; otherwise a new WHERE clause is
// inserted before GROUP BY/ORDER BY/LIMIT or at statement end.
func insertUserFilter(sql, alias string, hasWhere bool) string {
	predicate := fmt.Sprintf("%s.ID_USER = ?", alias)
	if hasWhere {
		loc := whereClauseRe.FindStringIndex(sql)
		return sql[:loc[1]] + " " + predicate + " AND" + sql[loc[1]:]
	}

	clause := " WHERE " + predicate
	if loc := clauseBreakRe.FindStringIndex(sql); loc != nil {
		return strings.TrimRight(sql[:loc[0]], " \n\t") + clause + " " + sql[loc[0]:]
	}

	// No trailing clause: insert before the tag block or semicolon if any.
	insertAt := len(sql)
	if loc := hashtagRe.FindStringIndex(sql); loc != nil {
		insertAt = loc[0]
	}
	head := strings.TrimRight(sql[:insertAt], " \n\t;")
	tail := sql[insertAt:]
	if tail != "" {
		return head + clause + "\n" + tail
	}
	return head + clause
}

// appendMissingTags completes the trailing tag block: one #DEPOT_alias# per
// join-table alias, one #FACTS_alias# per fact-table alias, plus #PERIODE#
// when the query mentions a date or period column.
func appendMissingTags(sql string, elements models.FrameworkElements) string {
	var tags []string
	if !elements.HasDepotHashtag {
		for _, alias := range elements.DepotAliases {
			tags = append(tags, fmt.Sprintf("#DEPOT_%s#", alias))
		}
	}
	if !elements.HasFactsHashtag {
		for _, alias := range elements.FactsAliases {
			tags = append(tags, fmt.Sprintf("#FACTS_%s#", alias))
		}
	}
	if !elements.HasPeriodHashtag && periodWordRe.MatchString(sql) {
		tags = append(tags, "#PERIODE#")
	}
	if len(tags) == 0 {
		return sql
	}
	return strings.TrimRight(sql, " \n\t;") + "\n" + strings.Join(tags, " ")
}
