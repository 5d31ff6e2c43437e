package composer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Placeholder validation errors. They are reported wrapped in a *FieldError.
var (
	ErrNamedMixedNumeric      = errors.New("named field cannot mix numeric placeholders")
	ErrPositionalMixedNamed   = errors.New("positional field cannot mix named placeholders")
	ErrInvalidNamedFormat     = errors.New("invalid named-variable format")
	ErrHeaderTooManyVariables = errors.New("header supports at most one variable")
	ErrUnknownFormat          = errors.New("unknown parameter format")
)

// Draft-level errors.
var (
	ErrDraftInvalid = errors.New("draft is invalid")
	ErrBodyRequired = errors.New("body is required")
)

var (
	placeholderRe = regexp.MustCompile(`\{\{([^{}]*?)\}\}`)
	numericRe     = regexp.MustCompile(`^\d+$`)
	namedRe       = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// FieldError is a placeholder validation failure on one section.
type FieldError struct {
	Section Section
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Section, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Extract returns the placeholder tokens of text in order, and the trimmed
// identifiers inside them. Duplicates are kept.
func Extract(text string) (tokens, idents []string) {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	tokens = make([]string, 0, len(matches))
	idents = make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[0])
		idents = append(idents, strings.TrimSpace(m[1]))
	}
	return tokens, idents
}

func isNumeric(ident string) bool {
	return numericRe.MatchString(ident)
}

// Validate checks the placeholders of text against format. It returns the
// first violation as a *FieldError, or nil.
func Validate(text string, format ParameterFormat, section Section) error {
	fail := func(err error) error { return &FieldError{Section: section, Err: err} }

	if !format.valid() {
		return fail(ErrUnknownFormat)
	}
	_, idents := Extract(text)
	if len(idents) == 0 {
		return nil
	}

	if format == FormatNamed {
		for _, id := range idents {
			if isNumeric(id) {
				return fail(ErrNamedMixedNumeric)
			}
		}
	}
	if format == FormatPositional {
		for _, id := range idents {
			if !isNumeric(id) {
				return fail(ErrPositionalMixedNamed)
			}
		}
	}
	if format == FormatNamed {
		for _, id := range idents {
			if !namedRe.MatchString(id) {
				return fail(ErrInvalidNamedFormat)
			}
		}
	}
	if section == SectionHeader && len(idents) > 1 {
		return fail(ErrHeaderTooManyVariables)
	}
	return nil
}

// FieldErrors holds the current validation result of header and body.
type FieldErrors struct {
	Header error `json:"-"`
	Body   error `json:"-"`
}

// Err joins both field errors, or returns nil when both fields are valid.
func (f FieldErrors) Err() error {
	return errors.Join(f.Header, f.Body)
}

// Messages renders the errors keyed by section, for API responses.
func (f FieldErrors) Messages() map[Section]string {
	out := map[Section]string{}
	if f.Header != nil {
		out[SectionHeader] = errors.Unwrap(f.Header).Error()
	}
	if f.Body != nil {
		out[SectionBody] = errors.Unwrap(f.Body).Error()
	}
	return out
}

// FieldErrors validates header and body independently.
func (d *Draft) FieldErrors() FieldErrors {
	var fe FieldErrors
	if d.HeaderType == HeaderText {
		fe.Header = Validate(d.HeaderText, d.ParameterFormat, SectionHeader)
	}
	fe.Body = Validate(d.Body, d.ParameterFormat, SectionBody)
	return fe
}
