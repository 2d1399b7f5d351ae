package validation

import (
	"context"

	"github.com/talentbase/nl2sql/src/models"
)

// Service chains the validation passes in their fixed order: syntax,
// security, framework compliance with a single auto-fix attempt, then the
// optional LLM semantic judge.
type Service struct {
	framework *FrameworkValidator
	security  *SecurityValidator
	semantic  *SemanticValidator
	// sqlReadOnly gates the destructive-statement check only. Injection and
	// syntax checks always run.
	sqlReadOnly bool
}

func NewService(framework *FrameworkValidator, security *SecurityValidator, semantic *SemanticValidator, sqlReadOnly bool) *Service {
	return &Service{
		framework:   framework,
		security:    security,
		semantic:    semantic,
		sqlReadOnly: sqlReadOnly,
	}
}

func (s *Service) Framework() *FrameworkValidator { return s.framework }
func (s *Service) Security() *SecurityValidator   { return s.security }

// ValidateComplete runs the full pass over one SQL statement. Compliance
// failures trigger exactly one auto-fix attempt, re-validated once; the
// corrected statement then flows through the remaining checks. The report is
// always returned, Valid summarizing every pass.
func (s *Service) ValidateComplete(ctx context.Context, sql, question, provider, model string, withSemantic bool) (*models.ValidationReport, error) {
	report := &models.ValidationReport{
		OriginalQuery: sql,
		FinalQuery:    sql,
	}

	if ok, msg := s.security.CheckSyntax(sql); !ok {
		report.Syntax = &models.CheckOutcome{Valid: false, Message: msg}
		report.Message = msg
		return report, nil
	}
	report.Syntax = &models.CheckOutcome{Valid: true}

	if s.sqlReadOnly {
		if destructive, msg := s.security.CheckDestructive(sql); destructive {
			report.Security = &models.CheckOutcome{Valid: false, Message: msg}
			report.Message = msg
			return report, nil
		}
	}
	if safe, msg := s.security.CheckInjection(sql); !safe {
		report.Security = &models.CheckOutcome{Valid: false, Message: msg}
		report.Message = msg
		return report, nil
	}
	report.Security = &models.CheckOutcome{Valid: true}

	compliant, msg, elements := s.framework.Validate(sql)
	if !compliant {
		fixed, err := s.framework.AutoFix(sql)
		if err != nil {
			report.Framework = &models.FrameworkOutcome{
				Compliant:   false,
				Message:     msg,
				Elements:    &elements,
				Suggestions: s.framework.Suggestions(elements),
			}
			report.Message = msg
			return report, err
		}
		report.AutoFixApplied = true
		report.FinalQuery = fixed
		compliant, msg, elements = s.framework.Validate(fixed)
		if !compliant {
			report.Framework = &models.FrameworkOutcome{
				Compliant:   false,
				Message:     msg,
				Elements:    &elements,
				Suggestions: s.framework.Suggestions(elements),
			}
			report.Message = msg
			return report, &models.FrameworkError{Message: msg, SQL: fixed}
		}
	}
	report.Framework = &models.FrameworkOutcome{Compliant: true, Message: msg, Elements: &elements}

	if withSemantic && s.semantic != nil {
		valid, warning, semMsg := s.semantic.ValidateSemantics(ctx, report.FinalQuery, question, provider, model)
		report.Semantic = &models.CheckOutcome{Valid: valid, Message: semMsg}
		if !valid {
			report.Message = semMsg
			return report, nil
		}
		report.Warning = warning
	}

	report.Valid = true
	if report.Warning {
		report.Message = report.Semantic.Message
	} else {
		report.Message = "Requête valide"
	}
	if report.AutoFixApplied {
		report.Message += " (Requête corrigée automatiquement)"
	}
	return report, nil
}
