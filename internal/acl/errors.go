package acl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation is returned for input that breaks a field rule.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is returned when a unique value is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrConstraint is returned when an operation would break a referential or policy invariant.
	ErrConstraint = errors.New("constraint violated")
	// ErrNotFound is returned for unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration is returned when the installation lacks required data, e.g. a default group.
	ErrConfiguration = errors.New("configuration error")
)

// Duplicate errors per entity. Each one also matches ErrDuplicate.
var (
	ErrDuplicateRule  = fmt.Errorf("rule %w", ErrDuplicate)
	ErrDuplicateGrant = fmt.Errorf("grant %w", ErrDuplicate)
	ErrDuplicateGroup = fmt.Errorf("group %w", ErrDuplicate)
	ErrDuplicateUser  = fmt.Errorf("user %w", ErrDuplicate)
)

// Error carries an error kind together with messages that can be shown to a user.
type Error struct {
	Kind     error
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return e.Kind.Error()
	}

	return e.Kind.Error() + ": " + strings.Join(e.Messages, "; ")
}

// Unwrap returns the kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, messages ...string) *Error {
	return &Error{Kind: kind, Messages: messages}
}

// Messages returns the human-readable messages of err.
// Errors that are not an *Error yield their own text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var aclErr *Error
	if errors.As(err, &aclErr) && len(aclErr.Messages) > 0 {
		return aclErr.Messages
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fieldMessages(verrs)
	}

	return []string{err.Error()}
}

// validationError turns validator output into an ErrValidation *Error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	return newError(ErrValidation, fieldMessages(verrs)...)
}

func fieldMessages(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "email":
			out = append(out, field+" must be a valid email address")
		default:
			out = append(out, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}

	return out
}

// notFound maps gorm.ErrRecordNotFound to an ErrNotFound *Error.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, fmt.Sprintf(format, args...))
	}

	return err
}

// storeError maps a translated unique key violation to the duplicate kind.
func storeError(err, duplicate error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newError(duplicate, fmt.Sprintf(format, args...))
	}

	return err
}
