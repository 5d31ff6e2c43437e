package composer

import (
	"fmt"
	"strings"
)

// Record is a template as returned by the template API.
type Record struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Status          string          `json:"status,omitempty"`
	Category        Category        `json:"category"`
	Language        string          `json:"language"`
	ParameterFormat ParameterFormat `json:"parameter_format,omitempty"`
	Components      []Component     `json:"components"`
}

var wireButtonTypes = map[string]ButtonType{
	"QUICK_REPLY":  ButtonQuickReply,
	"URL":          ButtonURL,
	"PHONE_NUMBER": ButtonPhoneNumber,
	"COPY_CODE":    ButtonCopyCode,
	"CATALOG":      ButtonCatalogView,
	"VOICE_CALL":   ButtonCallPermissionView,
	"OTP":          ButtonOTPCopy,
}

// FromTemplate rebuilds a draft from a fetched template. Only the first
// example row of each section is kept; phone numbers are kept whole with an
// empty country code.
func FromTemplate(rec Record) (Draft, error) {
	format, err := ParseParameterFormat(string(rec.ParameterFormat))
	if err != nil {
		return Draft{}, err
	}

	d := NewDraft(format)
	d.Name = rec.Name
	d.Language = rec.Language
	if rec.Category != "" {
		d.Category = Category(strings.ToUpper(string(rec.Category)))
	}

	seenHeader := false
	for _, c := range rec.Components {
		switch ComponentType(strings.ToUpper(string(c.Type))) {
		case ComponentHeader:
			if seenHeader {
				continue
			}
			seenHeader = true
			ht := HeaderType(strings.ToLower(c.Format))
			if !ht.valid() || ht == HeaderNone {
				return Draft{}, fmt.Errorf("unsupported header format %q", c.Format)
			}
			d.HeaderType = ht
			d.HeaderText = c.Text
			if c.Example != nil {
				d.Examples.Header = headerExamples(c.Example)
			}

		case ComponentBody:
			d.Body = c.Text
			if c.Example != nil {
				d.Examples.Body = bodyExamples(c.Example)
			}

		case ComponentFooter:
			d.Footer = c.Text

		case ComponentButtons:
			for _, wb := range c.Buttons {
				b, err := buttonFromWire(wb)
				if err != nil {
					return Draft{}, err
				}
				d.Buttons = append(d.Buttons, b)
			}

		default:
			return Draft{}, fmt.Errorf("unsupported component type %q", c.Type)
		}
	}

	switch d.Category {
	case CategoryMarketing:
		for _, b := range d.Buttons {
			switch b.Type {
			case ButtonCatalogView:
				d.MarketingType = MarketingCatalog
				d.CatalogFormat = CatalogMessage
			case ButtonCallPermissionView:
				d.MarketingType = MarketingCallPermission
			}
		}
	case CategoryAuthentication:
		for _, b := range d.Buttons {
			if b.Type == ButtonOTPCopy {
				d.CodeDeliveryMethod = b.OTPType
			}
		}
	}

	return d, nil
}

func headerExamples(ex *Example) []string {
	if len(ex.HeaderTextNamedParams) > 0 {
		return namedExamples(ex.HeaderTextNamedParams)
	}
	return append([]string(nil), ex.HeaderText...)
}

func bodyExamples(ex *Example) []string {
	if len(ex.BodyTextNamedParams) > 0 {
		return namedExamples(ex.BodyTextNamedParams)
	}
	if len(ex.BodyText) > 0 {
		return append([]string(nil), ex.BodyText[0]...)
	}
	return nil
}

func namedExamples(params []NamedParam) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.Example)
	}
	return out
}

func buttonFromWire(wb WireButton) (Button, error) {
	t, ok := wireButtonTypes[strings.ToUpper(wb.Type)]
	if !ok {
		return Button{}, fmt.Errorf("unsupported button type %q", wb.Type)
	}
	b := Button{Type: t, Text: wb.Text}
	switch t {
	case ButtonURL:
		b.URL = wb.URL
		b.URLType = wb.URLType
		if b.URLType == "" {
			b.URLType = URLTypeStatic
			if strings.Contains(wb.URL, "{{") {
				b.URLType = "dynamic"
			}
		}
	case ButtonPhoneNumber:
		b.PhoneNumber = strings.TrimPrefix(wb.PhoneNumber, "+")
	case ButtonCopyCode:
		b.OfferCode = wb.OfferCode
		if b.OfferCode == "" && len(wb.Example) > 0 {
			b.OfferCode = wb.Example[0]
		}
	case ButtonOTPCopy:
		b.OTPType = wb.OTPType
	}
	return b, nil
}
