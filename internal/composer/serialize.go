package composer

import (
	"fmt"
	"strings"
)

// ComponentType is the type of a template component on the wire.
type ComponentType string

const (
	ComponentHeader  ComponentType = "HEADER"
	ComponentBody    ComponentType = "BODY"
	ComponentFooter  ComponentType = "FOOTER"
	ComponentButtons ComponentType = "BUTTONS"
)

// NamedParam is one example of a named placeholder.
type NamedParam struct {
	ParamName string `json:"param_name"`
	Example   string `json:"example"`
}

// Example is the example block of a HEADER or BODY component.
type Example struct {
	HeaderText            []string     `json:"header_text,omitempty"`
	HeaderTextNamedParams []NamedParam `json:"header_text_named_params,omitempty"`
	HeaderHandle          []string     `json:"header_handle,omitempty"`
	BodyText              [][]string   `json:"body_text,omitempty"`
	BodyTextNamedParams   []NamedParam `json:"body_text_named_params,omitempty"`
}

// WireButton is a button in the BUTTONS component.
type WireButton struct {
	Type        string   `json:"type"`
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	URLType     string   `json:"url_type,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	OfferCode   string   `json:"offer_code,omitempty"`
	OTPType     string   `json:"otp_type,omitempty"`
	Example     []string `json:"example,omitempty"`
}

// Component is one entry of the template "components" array.
type Component struct {
	Type    ComponentType `json:"type"`
	Format  string        `json:"format,omitempty"`
	Text    string        `json:"text,omitempty"`
	Example *Example      `json:"example,omitempty"`
	Buttons []WireButton  `json:"buttons,omitempty"`
}

// Payload is the body sent to the template-creation endpoint.
type Payload struct {
	ConnectionID    string          `json:"connection_id"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	Language        string          `json:"language"`
	Components      []Component     `json:"components"`
	ParameterFormat ParameterFormat `json:"parameter_format"`
}

// Serialize turns a valid draft into its components, in the order BODY,
// HEADER, FOOTER, BUTTONS. It refuses while header or body validation fails
// or the draft is structurally broken.
func Serialize(d Draft) ([]Component, error) {
	if err := d.FieldErrors().Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftInvalid, err)
	}
	if err := d.CheckStructure(); err != nil {
		return nil, err
	}

	components := []Component{{
		Type:    ComponentBody,
		Text:    d.Body,
		Example: exampleFor(d, SectionBody),
	}}

	if d.HeaderType != HeaderNone && d.HeaderType != "" {
		header := Component{
			Type:   ComponentHeader,
			Format: strings.ToUpper(string(d.HeaderType)),
		}
		// Media headers carry a handle, never text.
		if d.HeaderType == HeaderText {
			header.Text = d.HeaderText
			header.Example = exampleFor(d, SectionHeader)
		}
		components = append(components, header)
	}

	if d.Footer != "" {
		components = append(components, Component{Type: ComponentFooter, Text: d.Footer})
	}

	if len(d.Buttons) > 0 {
		buttons := make([]WireButton, 0, len(d.Buttons))
		for _, b := range d.Buttons {
			buttons = append(buttons, wireButton(d, b))
		}
		components = append(components, Component{Type: ComponentButtons, Buttons: buttons})
	}

	return components, nil
}

// BuildRequest checks the draft for submission and assembles the payload.
func BuildRequest(connectionID string, d Draft) (*Payload, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	components, err := Serialize(d)
	if err != nil {
		return nil, err
	}
	return &Payload{
		ConnectionID:    connectionID,
		Name:            d.Name,
		Category:        d.Category,
		Language:        d.Language,
		Components:      components,
		ParameterFormat: d.ParameterFormat,
	}, nil
}

func exampleFor(d Draft, s Section) *Example {
	values := d.Examples.For(s)
	if len(values) == 0 {
		return nil
	}

	ex := &Example{}
	if d.ParameterFormat == FormatNamed {
		_, idents := Extract(d.Text(s))
		params := make([]NamedParam, 0, len(idents))
		for i, id := range idents {
			if i >= len(values) {
				break
			}
			params = append(params, NamedParam{ParamName: id, Example: values[i]})
		}
		if s == SectionHeader {
			ex.HeaderTextNamedParams = params
		} else {
			ex.BodyTextNamedParams = params
		}
		return ex
	}

	row := append([]string(nil), values...)
	if s == SectionHeader {
		ex.HeaderText = row
	} else {
		ex.BodyText = [][]string{row}
	}
	return ex
}

func wireButton(d Draft, b Button) WireButton {
	switch b.Type {
	case ButtonQuickReply:
		return WireButton{Type: string(b.Type), Text: b.Text}
	case ButtonURL:
		return WireButton{Type: string(b.Type), Text: b.Text, URL: b.URL, URLType: b.URLType}
	case ButtonPhoneNumber:
		return WireButton{Type: string(b.Type), Text: b.Text, PhoneNumber: "+" + b.CountryCode + b.PhoneNumber}
	case ButtonCopyCode:
		return WireButton{Type: string(b.Type), Text: b.Text, OfferCode: b.OfferCode}
	case ButtonCatalogView:
		return WireButton{Type: "CATALOG", Text: b.Text}
	case ButtonCallPermissionView:
		return WireButton{Type: "VOICE_CALL", Text: b.Text}
	case ButtonOTPCopy:
		otp := b.OTPType
		if d.CodeDeliveryMethod != "" {
			otp = d.CodeDeliveryMethod
		}
		return WireButton{Type: "OTP", Text: b.Text, OTPType: otp}
	}
	panic(fmt.Sprintf("composer: cannot serialize button type %q", b.Type))
}
