package openai

import (
	"context"
	"errors"
	"net"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/portfolio-rag/internal/resilience"
)

// classifyAPIError: 4xx кроме 408/429 считаются ошибкой запроса, breaker их не считает.
func classifyAPIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}

	if code, ok := statusCode(err); ok {
		if resilience.RetryableStatus(code) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{RecordFailure: code >= 500}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func statusCode(err error) (int, bool) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	return 0, false
}

// guard runs fn through the executor when one is configured.
func guard(ctx context.Context, exec *resilience.Executor, op string, fn func(context.Context) error) error {
	if exec == nil {
		return fn(ctx)
	}
	return exec.Execute(ctx, op, fn, classifyAPIError)
}
