// Package llm defines errors shared by answer-generation clients. The
// AnswerGenerator contract itself lives in internal/domain.
package llm

import "errors"

// ErrGeneration marks a failure of the answer-generation service (network
// error or non-2xx response). The core does not retry.
var ErrGeneration = errors.New("generation service error")
