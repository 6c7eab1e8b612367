package httpx

import (
	"errors"
	"fmt"
)

var ErrRobotsDisallowed = errors.New("blocked by robots.txt")

// FetchError is a transport failure. Status is zero when no response arrived.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	if e.Status == 0 {
		return fmt.Sprintf("fetch error: %v", e.Err)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
