package paginator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContent is returned by Start when there are no pages.
	ErrInvalidContent = errors.New("paginator: can't paginate an empty list")
	// ErrAlreadyStarted is returned when Start is called on a used session.
	ErrAlreadyStarted = errors.New("paginator: session already started")
	// ErrNoMessenger is returned when the invocation lacks a messenger or event source.
	ErrNoMessenger = errors.New("paginator: invocation has no messenger or event source")
)

// InvalidContentTypeError reports a page that is not a usable embed.
type InvalidContentTypeError struct {
	Index int
}

func (e *InvalidContentTypeError) Error() string {
	return fmt.Sprintf("paginator: page %d is not an embed", e.Index)
}

// Code implements the coder interface used by handler summaries.
func (e *InvalidContentTypeError) Code() string {
	return "invalid_content_type"
}
