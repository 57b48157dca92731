package waitfor

import (
	"fmt"
	"time"
)

// NotFoundError reports that a presence wait exhausted its timeout without a
// qualifying match. Callers can recover by retrying, falling back to another
// query, or aborting.
type NotFoundError struct {
	Query   string
	Timeout time.Duration
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found after %s", e.Query, e.Timeout)
}

// StillPresentError reports that an absence wait exhausted its timeout while
// matches still qualified. Distinct from NotFoundError: the target never
// disappeared, as opposed to never appearing.
type StillPresentError struct {
	Query   string
	Timeout time.Duration
}

func (e *StillPresentError) Error() string {
	return fmt.Sprintf("%s still visible after %s", e.Query, e.Timeout)
}

// ProviderError wraps a visual provider failure. Provider faults abort a
// wait immediately: the retry loop only re-queries on empty or insufficient
// results, never on faults, so a broken OCR engine surfaces as an error
// instead of a false timeout.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("visual provider failed during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
