package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/talentbase/nl2sql/src/models"
)

// withRetry runs fn up to maxRetries+1 times. Only network-class failures
// are retried; auth, quota and config errors abort immediately because
// retrying them cannot succeed. Each attempt gets its own deadline,
// lengthened by 5 seconds per retry, and retries sleep 2^attempt seconds
// with the parent context able to cut the wait short.
func withRetry(ctx context.Context, provider string, baseTimeout time.Duration, maxRetries int, fn func(context.Context) (string, error)) (string, error) {
	if baseTimeout <= 0 {
		baseTimeout = 30 * time.Second
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, baseTimeout+time.Duration(attempt)*5*time.Second)
		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}

		lastErr = classifyError(provider, err)
		var netErr *models.LLMNetworkError
		if !errors.As(lastErr, &netErr) {
			return "", lastErr
		}
		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Printf("⚠ %s: tentative %d/%d échouée (%v), nouvel essai dans %s", provider, attempt+1, maxRetries+1, err, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", classifyError(provider, ctx.Err())
		}
	}
	return "", lastErr
}
