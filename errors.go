package inflect

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// use errors.Is without caring about the concrete type.
var (
	// ErrMalformedKey reports a combined key whose token count or tokens do
	// not fit the part of speech it is used with.
	ErrMalformedKey = errors.New("malformed combined key")
	// ErrSuppressed reports a request for a form marked as never generated.
	ErrSuppressed = errors.New("combined key is suppressed")
	// ErrNoApplicableRule reports that no authored rule covers the word for
	// the requested form.
	ErrNoApplicableRule = errors.New("no applicable rule")
	// ErrInvalidPattern reports a rule regex that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrTransform reports a regex engine failure while applying a rule.
	ErrTransform = errors.New("transform failed")
	// ErrUnknownPartOfSpeech reports a part-of-speech id with no definition.
	ErrUnknownPartOfSpeech = errors.New("unknown part of speech")
	// ErrUnknownClass reports a rule filter naming an undefined class or value.
	ErrUnknownClass = errors.New("unknown word class")
	// ErrNotFound reports a missing axis, value, rule, singleton or word.
	ErrNotFound = errors.New("not found")
)

// KeyError describes why a combined key was rejected.
type KeyError struct {
	Key    CombinedKey
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("malformed combined key %q: %s", string(e.Key), e.Reason)
}

// Unwrap returns ErrMalformedKey.
func (e *KeyError) Unwrap() error { return ErrMalformedKey }

func keyError(key CombinedKey, format string, args ...any) error {
	return &KeyError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// InvalidPatternError identifies the broken regex inside a rule so an editor
// can route the author to the exact step. Step is -1 for the rule's own
// whole-word pattern.
type InvalidPatternError struct {
	RuleID  int
	Step    int
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("rule %d: invalid word pattern %q: %v", e.RuleID, e.Pattern, e.Err)
	}
	return fmt.Sprintf("rule %d step %d: invalid pattern %q: %v", e.RuleID, e.Step, e.Pattern, e.Err)
}

// Is matches ErrInvalidPattern.
func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

// Unwrap returns the compiler error.
func (e *InvalidPatternError) Unwrap() error { return e.Err }

// TransformError is a runtime failure of the regex engine (for example a
// match timeout) while a rule step was running.
type TransformError struct {
	RuleID int
	Step   int
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("rule %d step %d: %v", e.RuleID, e.Step, e.Err)
}

// Is matches ErrTransform.
func (e *TransformError) Is(target error) bool { return target == ErrTransform }

// Unwrap returns the engine error.
func (e *TransformError) Unwrap() error { return e.Err }

// DeclensionError wraps any failure of Decline with the word and form it was
// computing.
type DeclensionError struct {
	WordID WordID
	Key    CombinedKey
	Err    error
}

func (e *DeclensionError) Error() string {
	return fmt.Sprintf("decline word %d at %q: %v", e.WordID, string(e.Key), e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeclensionError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err is an expected, user-facing condition
// (suppressed form, missing rule, authoring error) rather than a fault.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSuppressed) ||
		errors.Is(err, ErrNoApplicableRule) ||
		errors.Is(err, ErrInvalidPattern) ||
		errors.Is(err, ErrMalformedKey)
}
