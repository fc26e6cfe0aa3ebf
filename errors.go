package vecshelf

import (
	"errors"
	"fmt"
	"time"
)

// ErrCollectionNotFound is returned for operations naming a collection the
// ledger does not know.
var ErrCollectionNotFound = errors.New("collection not found")

// ErrHTTP is a remote-service failure carrying the HTTP status. Statuses 429
// and 503 are transient and eligible for retry; everything else is not.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// UnsupportedFormatError rejects a file whose extension is outside the closed
// format enumeration. It is raised before any disk or network I/O and is
// never retried.
type UnsupportedFormatError struct {
	Name string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: %s", e.Ext, e.Name)
}

// FetchError wraps a network or remote-service failure while obtaining a
// file's bytes. Fetch failures are transient and eligible for retry.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InsertMismatchError reports a data-integrity failure: the engine
// acknowledged a different number of rows than were submitted.
type InsertMismatchError struct {
	Collection string
	Submitted  int
	Inserted   int
}

func (e *InsertMismatchError) Error() string {
	return fmt.Sprintf("insert into %s: submitted %d rows, engine reports %d",
		e.Collection, e.Submitted, e.Inserted)
}

// Retryable reports whether err is transient: a fetch-level network failure
// or an HTTP 429/503. Format and validation errors are never retryable.
func Retryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		// A fetch wrapping an HTTP error defers to the status code.
		var he *ErrHTTP
		if errors.As(fe.Err, &he) {
			return he.Status == 429 || he.Status == 503
		}
		return true
	}
	var he *ErrHTTP
	return errors.As(err, &he) && (he.Status == 429 || he.Status == 503)
}

// retryAfterOf extracts the Retry-After duration from an ErrHTTP, or 0.
func retryAfterOf(err error) time.Duration {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// statusOf extracts the HTTP status code from an ErrHTTP, or 0.
func statusOf(err error) int {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
