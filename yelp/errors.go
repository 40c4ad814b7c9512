package yelp

import "fmt"

// ProviderHTTPError is a non-2xx answer from the Yelp AI API.
type ProviderHTTPError struct {
	Status int
	Body   string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("yelp api error: status %d", e.Status)
}

// ProviderUnavailableError is a transport-level failure: DNS, connection
// refused, or the 30s deadline.
type ProviderUnavailableError struct {
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("yelp api unreachable: %v", e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
