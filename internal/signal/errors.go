package signal

import (
	"errors"
	"fmt"
)

// ErrFetch matches every FetchError via errors.Is.
var ErrFetch = errors.New("signal fetch failed")

// Classification failures reported by Latest.
var (
	ErrSignalMissing   = errors.New("signal data not found")
	ErrSignalMalformed = errors.New("signal data malformed")
	ErrSignalUnknown   = errors.New("unknown signal value")
)

// FetchError is the single failure kind of the fetcher. Transport errors,
// non-2xx responses and undecodable bodies are not told apart.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

func newFetchError(url string, cause error) *FetchError {
	return &FetchError{
		URL:   url,
		Cause: cause,
	}
}
