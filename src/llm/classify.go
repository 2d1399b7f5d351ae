package llm

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/talentbase/nl2sql/src/models"
)

// classifyError maps a raw provider SDK error onto the service error
// taxonomy. Already-classified errors pass through unchanged.
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsLLMError(err); ok {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewLLMNetworkError(provider, "délai d'attente dépassé", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return models.NewLLMNetworkError(provider, "connexion au fournisseur impossible", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "unauthorized", "invalid api key", "incorrect api key", "authentication", "permission denied", "api key not valid"):
		return models.NewLLMAuthError(provider, "")
	case containsAny(msg, "429", "rate limit", "quota", "resource has been exhausted", "overloaded", "insufficient_quota", "billing"):
		return models.NewLLMQuotaError(provider, "", parseRetryAfter(msg))
	case containsAny(msg, "timeout", "deadline", "connection refused", "connection reset", "no such host", "eof", "tls handshake", "500", "502", "503", "504", "internal server error", "internal error", "service unavailable", "bad gateway"):
		return models.NewLLMNetworkError(provider, "erreur de communication avec le fournisseur", err)
	}
	return models.NewLLMConfigError(provider, err.Error())
}

// retryAfterRe captures the delay hint some providers embed in 429 bodies,
// like "Please retry after 20 seconds" or "try again in 1.5s".
var retryAfterRe = regexp.MustCompile(`(?:retry[- ]?after|try again in|retry in)\D{0,3}(\d+(?:\.\d+)?)\s*(ms|milliseconds?|s\b|sec(?:onds?)?|m\b|min(?:utes?)?)?`)

// parseRetryAfter extracts a retry-after hint from an error message,
// normalized to a Go duration string. Empty when no hint is present.
func parseRetryAfter(msg string) string {
	m := retryAfterRe.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	unit := "s"
	switch {
	case strings.HasPrefix(m[2], "ms"), strings.HasPrefix(m[2], "millisecond"):
		unit = "ms"
	case strings.HasPrefix(m[2], "m"):
		unit = "m"
	}
	return m[1] + unit
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
