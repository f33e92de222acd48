package blog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/blogmeta/internal/storage"
)

// ErrNotFound is returned when a blog id is unknown.
var ErrNotFound = storage.ErrNotFound

// ValidationError lists the input fields that failed validation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Fields, ", "), e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
