// Package composer holds the WhatsApp message-template draft model and the
// pure operations that edit, validate and serialize it.
//
// Nothing in this package performs I/O. A Draft is owned by exactly one
// editing session; callers persist it between requests if they need to.
package composer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// Category is the Meta template category.
type Category string

const (
	CategoryMarketing      Category = "MARKETING"
	CategoryUtility        Category = "UTILITY"
	CategoryAuthentication Category = "AUTHENTICATION"
)

// MarketingType refines a MARKETING template.
type MarketingType string

const (
	MarketingDefault        MarketingType = "DEFAULT"
	MarketingCatalog        MarketingType = "CATALOG"
	MarketingCallPermission MarketingType = "CALL_PERMISSION"
)

// HeaderType is the kind of HEADER component, or none.
type HeaderType string

const (
	HeaderNone     HeaderType = "none"
	HeaderText     HeaderType = "text"
	HeaderImage    HeaderType = "image"
	HeaderVideo    HeaderType = "video"
	HeaderDocument HeaderType = "document"
)

// ParameterFormat decides the placeholder syntax allowed in header and body.
type ParameterFormat string

const (
	FormatNamed      ParameterFormat = "named"
	FormatPositional ParameterFormat = "positional"
)

// ParseParameterFormat normalises s to one of the known formats. An empty
// string means positional.
func ParseParameterFormat(s string) (ParameterFormat, error) {
	switch f := ParameterFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPositional, nil
	case FormatNamed, FormatPositional:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

func (f ParameterFormat) valid() bool {
	return f == FormatNamed || f == FormatPositional
}

// Section identifies a text field that may carry placeholders.
type Section string

const (
	SectionHeader Section = "header"
	SectionBody   Section = "body"
)

const (
	// CatalogMessage is the catalog format forced by the CATALOG marketing type.
	CatalogMessage = "CATALOG_MESSAGE"

	// CodeDeliveryCopyCode is the code delivery method used for new
	// authentication templates.
	CodeDeliveryCopyCode = "COPY_CODE"

	// OTPBody is the fixed body of authentication templates.
	OTPBody = "{{1}} is your verification code. For your security, do not share this code."

	// CatalogGreeting is the fixed header text of catalog templates.
	CatalogGreeting = "Check out our catalog!"

	// DefaultLanguage is the language of a freshly created draft.
	DefaultLanguage = "en_US"
)

// Examples holds example values per section, in placeholder order.
type Examples struct {
	Header []string `json:"header,omitempty" yaml:"header,omitempty" toml:"header,omitempty"`
	Body   []string `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
}

// For returns the example values of a section.
func (e Examples) For(s Section) []string {
	if s == SectionHeader {
		return e.Header
	}
	return e.Body
}

// Draft is an in-progress template.
type Draft struct {
	Category           Category        `json:"category" yaml:"category" toml:"category"`
	MarketingType      MarketingType   `json:"marketing_type" yaml:"marketing_type" toml:"marketing_type"`
	CatalogFormat      string          `json:"catalog_format,omitempty" yaml:"catalog_format,omitempty" toml:"catalog_format,omitempty"`
	Name               string          `json:"name" yaml:"name" toml:"name"`
	Language           string          `json:"language" yaml:"language" toml:"language"`
	HeaderType         HeaderType      `json:"header_type" yaml:"header_type" toml:"header_type"`
	HeaderText         string          `json:"header_text,omitempty" yaml:"header_text,omitempty" toml:"header_text,omitempty"`
	Body               string          `json:"body" yaml:"body" toml:"body"`
	Footer             string          `json:"footer,omitempty" yaml:"footer,omitempty" toml:"footer,omitempty"`
	ParameterFormat    ParameterFormat `json:"parameter_format" yaml:"parameter_format" toml:"parameter_format"`
	Examples           Examples        `json:"examples" yaml:"examples" toml:"examples"`
	Buttons            []Button        `json:"buttons" yaml:"buttons" toml:"buttons"`
	CodeDeliveryMethod string          `json:"code_delivery_method,omitempty" yaml:"code_delivery_method,omitempty" toml:"code_delivery_method,omitempty"`
}

// NewDraft returns the initial draft: a default marketing template with no
// header, using the given parameter format (positional when empty).
func NewDraft(format ParameterFormat) Draft {
	if format == "" {
		format = FormatPositional
	}
	return Draft{
		Category:        CategoryMarketing,
		MarketingType:   MarketingDefault,
		Language:        DefaultLanguage,
		HeaderType:      HeaderNone,
		ParameterFormat: format,
		Buttons:         []Button{},
	}
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	out.Buttons = append([]Button{}, d.Buttons...)
	out.Examples = Examples{
		Header: append([]string(nil), d.Examples.Header...),
		Body:   append([]string(nil), d.Examples.Body...),
	}
	return out
}

// Text returns the text of a section.
func (d *Draft) Text(s Section) string {
	if s == SectionHeader {
		return d.HeaderText
	}
	return d.Body
}

func (d *Draft) setText(s Section, text string) {
	if s == SectionHeader {
		d.HeaderText = text
		return
	}
	d.Body = text
}

// SetField assigns one of the free-form draft fields. The parameter format is
// fixed at creation time and cannot be set here.
func (d *Draft) SetField(field, value string) error {
	switch field {
	case "name":
		d.Name = value
	case "language":
		d.Language = value
	case "header_type":
		ht := HeaderType(strings.ToLower(value))
		if !ht.valid() {
			return fmt.Errorf("unknown header type %q", value)
		}
		if d.Category == CategoryAuthentication && ht != HeaderNone {
			return fmt.Errorf("authentication templates cannot have a header")
		}
		d.HeaderType = ht
	case "header_text":
		d.HeaderText = value
	case "body":
		d.Body = value
	case "footer":
		d.Footer = value
	case "code_delivery_method":
		if d.Category != CategoryAuthentication {
			return fmt.Errorf("code delivery method only applies to authentication templates")
		}
		d.CodeDeliveryMethod = value
	case "parameter_format":
		return fmt.Errorf("parameter format is fixed per draft")
	default:
		return fmt.Errorf("unknown draft field %q", field)
	}
	return nil
}

// SetExamples replaces the example values of a section.
func (d *Draft) SetExamples(s Section, values []string) {
	if s == SectionHeader {
		d.Examples.Header = values
		return
	}
	d.Examples.Body = values
}

func (h HeaderType) valid() bool {
	switch h {
	case HeaderNone, HeaderText, HeaderImage, HeaderVideo, HeaderDocument:
		return true
	}
	return false
}

func (c Category) valid() bool {
	switch c {
	case CategoryMarketing, CategoryUtility, CategoryAuthentication:
		return true
	}
	return false
}

// CheckStructure reports problems the editing operations never produce but a
// hand-written draft can carry: an unknown parameter format, category, header
// or button type, and more buttons than the caps allow. An empty header type
// counts as none.
func (d *Draft) CheckStructure() error {
	if !d.ParameterFormat.valid() {
		return fmt.Errorf("%w: %w %q", ErrDraftInvalid, ErrUnknownFormat, d.ParameterFormat)
	}
	if !d.Category.valid() {
		return fmt.Errorf("%w: unknown category %q", ErrDraftInvalid, d.Category)
	}
	if d.HeaderType != "" && !d.HeaderType.valid() {
		return fmt.Errorf("%w: unknown header type %q", ErrDraftInvalid, d.HeaderType)
	}
	if d.Category == CategoryAuthentication && d.HeaderType != "" && d.HeaderType != HeaderNone {
		return fmt.Errorf("%w: authentication templates cannot have a header", ErrDraftInvalid)
	}
	return d.checkButtons()
}

var templateNameRe = regexp.MustCompile(`^[a-z0-9_]{1,512}$`)

// Check reports problems that block submission but not preview: missing or
// malformed name, an unparseable language code, an empty body. Structural
// problems are reported first.
func (d *Draft) Check() error {
	if err := d.CheckStructure(); err != nil {
		return err
	}
	if !templateNameRe.MatchString(d.Name) {
		return fmt.Errorf("%w: name must be 1-512 lowercase letters, digits or underscores", ErrDraftInvalid)
	}
	if d.Language == "" {
		return fmt.Errorf("%w: language is required", ErrDraftInvalid)
	}
	// Meta uses underscores (pt_BR); BCP 47 uses hyphens.
	if _, err := language.Parse(strings.ReplaceAll(d.Language, "_", "-")); err != nil {
		return fmt.Errorf("%w: invalid language %q", ErrDraftInvalid, d.Language)
	}
	if strings.TrimSpace(d.Body) == "" {
		return ErrBodyRequired
	}
	return nil
}
