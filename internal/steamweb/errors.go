package steamweb

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod      = errors.New("unknown api method")
	ErrMalformedResponse  = errors.New("malformed api response")
	ErrAPI                = errors.New("api returned an error status")
	ErrPrivateFriendsList = errors.New("friends list is private")
	ErrEmptyFriendsList   = errors.New("no confirmed friends found")
	ErrNetwork            = errors.New("network request failed")
	errCreateRequest      = errors.New("failed to create request")
	errReadBody           = errors.New("failed to read response body")
)

// APIError is returned for any non 2xx response that was not mapped to a more specific error.
type APIError struct {
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}
