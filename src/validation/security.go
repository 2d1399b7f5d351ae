package validation

import (
	"regexp"
	"strings"
)

var (
	destructiveLeadRe = regexp.MustCompile(`(?i)^\s*(DELETE|DROP|TRUNCATE|ALTER|UPDATE|INSERT|CREATE)\b`)
	procExecRe        = regexp.MustCompile(`(?i)\b(EXEC|EXECUTE)\b`)

	injectionChainRe = regexp.MustCompile(`(?i);\s*(DROP|DELETE|UPDATE|INSERT|ALTER|TRUNCATE|CREATE)\b`)
	unionSelectRe    = regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`)

	sqlKeywordRe   = regexp.MustCompile(`(?i)\b(SELECT|FROM|WHERE|JOIN|GROUP|ORDER|HAVING|LIMIT)\b`)
	statementLeads = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN"}

	suspiciousInputRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)data:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
	}
)

type SecurityValidator struct{}

func NewSecurityValidator() *SecurityValidator {
	return &SecurityValidator{}
}

// CheckDestructive flags statements that would mutate data or schema, plus
// embedded procedure execution.
func (v *SecurityValidator) CheckDestructive(sql string) (bool, string) {
	if m := destructiveLeadRe.FindStringSubmatch(sql); m != nil {
		return true, "Opération destructive détectée: " + strings.ToUpper(m[1])
	}
	if m := procExecRe.FindStringSubmatch(sql); m != nil {
		return true, "Exécution de procédure détectée: " + strings.ToUpper(m[1])
	}
	return false, ""
}

// CheckInjection flags classic injection shapes: a statement terminator
// followed by a mutating keyword, UNION SELECT, and line comments. The
// framework's own annotation style is tolerated: block comments pass, and
// "--" passes only when it introduces a hashtag line ("-- #TAG#").
func (v *SecurityValidator) CheckInjection(sql string) (bool, string) {
	if injectionChainRe.MatchString(sql) {
		return false, "Motif d'injection détecté: enchaînement d'instructions"
	}
	if unionSelectRe.MatchString(sql) {
		return false, "Motif d'injection détecté: UNION SELECT"
	}
	if suspiciousLineComment(sql) {
		return false, "Motif d'injection détecté: commentaire SQL suspect"
	}
	return true, ""
}

// suspiciousLineComment reports a "--" occurrence not followed, after
// optional spaces, by "#". Block comments are not inspected here.
func suspiciousLineComment(sql string) bool {
	for i := 0; i+1 < len(sql); i++ {
		if sql[i] != '-' || sql[i+1] != '-' {
			continue
		}
		j := i + 2
		for j < len(sql) && (sql[j] == ' ' || sql[j] == '\t') {
			j++
		}
		if j >= len(sql) || sql[j] != '#' {
			return true
		}
		i = j
	}
	return false
}

// CheckSyntax runs lightweight sanity checks: keyword presence, balanced
// parentheses and quotes, and a recognized statement-leading keyword.
func (v *SecurityValidator) CheckSyntax(sql string) (bool, string) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return false, "Requête vide"
	}
	if !sqlKeywordRe.MatchString(trimmed) {
		return false, "Aucun mot-clé SQL reconnu"
	}

	first := strings.ToUpper(strings.Fields(trimmed)[0])
	allowed := false
	for _, lead := range statementLeads {
		if first == lead {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, "Instruction non autorisée: " + first
	}

	if open, close := strings.Count(trimmed, "("), strings.Count(trimmed, ")"); open != close {
		return false, "Parenthèses non équilibrées"
	}
	for _, q := range []string{"'", `"`, "`"} {
		if strings.Count(trimmed, q)%2 != 0 {
			return false, "Guillemets non équilibrés (" + q + ")"
		}
	}
	return true, ""
}

// ValidateUserInput checks the raw natural language question before any
// processing. Length bounds mirror the request binding.
func (v *SecurityValidator) ValidateUserInput(question string) (bool, string) {
	trimmed := strings.TrimSpace(question)
	if len(trimmed) < 3 {
		return false, "Question trop courte (3 caractères minimum)"
	}
	if len(trimmed) > 1000 {
		return false, "Question trop longue (1000 caractères maximum)"
	}
	for _, re := range suspiciousInputRe {
		if re.MatchString(trimmed) {
			return false, "La question contient un motif suspect"
		}
	}
	return true, ""
}

// SanitizeUserInput normalizes whitespace in the question.
func (v *SecurityValidator) SanitizeUserInput(question string) string {
	return strings.Join(strings.Fields(question), " ")
}
