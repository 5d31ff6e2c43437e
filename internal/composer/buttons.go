package composer

import (
	"fmt"
)

// ButtonType tags the Button variant.
type ButtonType string

const (
	ButtonQuickReply         ButtonType = "QUICK_REPLY"
	ButtonURL                ButtonType = "URL"
	ButtonPhoneNumber        ButtonType = "PHONE_NUMBER"
	ButtonCopyCode           ButtonType = "COPY_CODE"
	ButtonCatalogView        ButtonType = "CATALOG_VIEW"
	ButtonCallPermissionView ButtonType = "CALL_PERMISSION_VIEW"
	ButtonOTPCopy            ButtonType = "OTP_COPY"
)

const (
	// MaxButtons caps the total number of buttons on a template.
	MaxButtons = 10

	// URLTypeStatic is the default URL type of a new URL button.
	URLTypeStatic = "static"

	// DefaultCountryCode is the country code of a new PHONE_NUMBER button.
	DefaultCountryCode = "1"
)

// buttonCaps holds the per-type limits; types without an entry are only
// bound by MaxButtons.
var buttonCaps = map[ButtonType]int{
	ButtonURL:         2,
	ButtonPhoneNumber: 1,
	ButtonCopyCode:    1,
}

// Button is one entry of the BUTTONS component. Which fields are meaningful
// depends on Type; see buttonFields.
type Button struct {
	Type        ButtonType `json:"type" yaml:"type" toml:"type"`
	Text        string     `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	URLType     string     `json:"url_type,omitempty" yaml:"url_type,omitempty" toml:"url_type,omitempty"`
	CountryCode string     `json:"country_code,omitempty" yaml:"country_code,omitempty" toml:"country_code,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty" yaml:"phone_number,omitempty" toml:"phone_number,omitempty"`
	OfferCode   string     `json:"offer_code,omitempty" yaml:"offer_code,omitempty" toml:"offer_code,omitempty"`
	OTPType     string     `json:"otp_type,omitempty" yaml:"otp_type,omitempty" toml:"otp_type,omitempty"`
}

var buttonFields = map[ButtonType][]string{
	ButtonQuickReply:         {"text"},
	ButtonURL:                {"text", "url", "url_type"},
	ButtonPhoneNumber:        {"text", "country_code", "phone_number"},
	ButtonCopyCode:           {"text", "offer_code"},
	ButtonCatalogView:        {"text"},
	ButtonCallPermissionView: {"text"},
	ButtonOTPCopy:            {"text", "otp_type"},
}

// Valid reports whether t is one of the known button types.
func (t ButtonType) Valid() bool {
	_, ok := buttonFields[t]
	return ok
}

// NewButton returns a button of type t with its default fields.
func NewButton(t ButtonType) Button {
	b := Button{Type: t}
	switch t {
	case ButtonURL:
		b.URLType = URLTypeStatic
	case ButtonPhoneNumber:
		b.CountryCode = DefaultCountryCode
	case ButtonCatalogView:
		b.Text = "View catalog"
	case ButtonCallPermissionView:
		b.Text = "Call us"
	case ButtonOTPCopy:
		b.Text = "Copy code"
		b.OTPType = CodeDeliveryCopyCode
	}
	return b
}

// ButtonCounts counts the current buttons by type.
func (d *Draft) ButtonCounts() map[ButtonType]int {
	counts := make(map[ButtonType]int, len(d.Buttons))
	for _, b := range d.Buttons {
		counts[b.Type]++
	}
	return counts
}

// CanAddButton reports whether AddButton(t) would succeed.
func (d *Draft) CanAddButton(t ButtonType) bool {
	if !t.Valid() || len(d.Buttons) >= MaxButtons {
		return false
	}
	if limit, ok := buttonCaps[t]; ok && d.ButtonCounts()[t] >= limit {
		return false
	}
	return true
}

func (d *Draft) checkButtons() error {
	if len(d.Buttons) > MaxButtons {
		return fmt.Errorf("%w: at most %d buttons", ErrDraftInvalid, MaxButtons)
	}
	counts := make(map[ButtonType]int, len(d.Buttons))
	for i, b := range d.Buttons {
		if !b.Type.Valid() {
			return fmt.Errorf("%w: button %d has unknown type %q", ErrDraftInvalid, i, b.Type)
		}
		counts[b.Type]++
		if limit, ok := buttonCaps[b.Type]; ok && counts[b.Type] > limit {
			return fmt.Errorf("%w: at most %d %s buttons", ErrDraftInvalid, limit, b.Type)
		}
	}
	return nil
}

// AddButton appends a default button of type t. It returns false, leaving
// the draft untouched, when a cap has been reached.
func (d *Draft) AddButton(t ButtonType) bool {
	if !d.CanAddButton(t) {
		return false
	}
	d.Buttons = append(d.Buttons, NewButton(t))
	return true
}

// RemoveButton removes the button at index i.
func (d *Draft) RemoveButton(i int) bool {
	if i < 0 || i >= len(d.Buttons) {
		return false
	}
	d.Buttons = append(d.Buttons[:i:i], d.Buttons[i+1:]...)
	return true
}

// UpdateButton sets one field of the button at index i. Fields the button's
// type does not carry are rejected.
func (d *Draft) UpdateButton(i int, field, value string) error {
	if i < 0 || i >= len(d.Buttons) {
		return fmt.Errorf("button index %d out of range", i)
	}
	b := &d.Buttons[i]
	if !hasField(b.Type, field) {
		return fmt.Errorf("button type %s has no field %q", b.Type, field)
	}
	switch field {
	case "text":
		b.Text = value
	case "url":
		b.URL = value
	case "url_type":
		b.URLType = value
	case "country_code":
		b.CountryCode = value
	case "phone_number":
		b.PhoneNumber = value
	case "offer_code":
		b.OfferCode = value
	case "otp_type":
		b.OTPType = value
	}
	return nil
}

func hasField(t ButtonType, field string) bool {
	for _, f := range buttonFields[t] {
		if f == field {
			return true
		}
	}
	return false
}
