// Package embedding defines errors shared by embedding service clients.
// The Embedder contract itself lives in internal/domain.
package embedding

import "errors"

// ErrService marks a transient embedding-service failure (network error or
// non-2xx response). The core does not retry; retry policy belongs to the
// deployment.
var ErrService = errors.New("embedding service error")
