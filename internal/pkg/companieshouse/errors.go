package companieshouse

import (
	"errors"
	"fmt"
)

var (
	ErrNoDocumentLink = errors.New("document metadata has no document link")
)

// APIError is returned when the registry answers with a non-2xx status.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("registry error %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("registry error %d: %s: %s", e.StatusCode, e.URL, e.Body)
}
