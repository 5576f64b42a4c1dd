package errs

import cr "github.com/cockroachdb/errors"

// Error categories. Every business error carries exactly one of these as a mark,
// and the HTTP boundary maps the category to a status code.
var (
	ErrValidation   = cr.New("validation failed")
	ErrNotFound     = cr.New("not found")
	ErrAuthenticity = cr.New("authenticity check failed")
	ErrProvider     = cr.New("payment provider failure")
	ErrConflict     = cr.New("conflict")
	ErrState        = cr.New("invalid state transition")
	ErrForbidden    = cr.New("forbidden")
)

// sentinel is a business error with its own identity that still matches its category.
type sentinel struct {
	msg      string
	category error
}

func (e *sentinel) Error() string { return e.msg }

func (e *sentinel) Is(target error) bool { return target == e.category }

// Define creates a sentinel error that belongs to the given category.
func Define(msg string, category error) error {
	return &sentinel{msg: msg, category: category}
}

// Category returns the category mark carried by err, or nil when it has none.
func Category(err error) error {
	for _, c := range []error{ErrValidation, ErrNotFound, ErrAuthenticity, ErrProvider, ErrConflict, ErrState, ErrForbidden} {
		if cr.Is(err, c) {
			return c
		}
	}
	return nil
}
