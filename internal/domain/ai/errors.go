package ai

import "errors"

// ErrMissingAPIKey indicates the provider was constructed without a credential.
var ErrMissingAPIKey = errors.New("ai api key is not configured")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
