package launchdarkly

import (
	"errors"
	"fmt"
)

var (
	ErrorNotFound = errors.New("not_found")
)

// ApiError is returned whenever the management API responds with a
// non-2xx status code, the raw body is retained for reporting
type ApiError struct {
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error (status code: %v): %s", e.StatusCode, e.Body)
}
