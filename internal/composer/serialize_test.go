package composer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_BodyOnly(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.Body = "Hello {{1}}"

	components, err := Serialize(d)
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, ComponentBody, components[0].Type)
	assert.Equal(t, "Hello {{1}}", components[0].Text)
	assert.Nil(t, components[0].Example)
}

func TestSerialize_PositionalBodyExample(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.Body = "Hi {{1}}"
	d.SetExamples(SectionBody, []string{"John"})

	components, err := Serialize(d)
	require.NoError(t, err)

	raw, err := json.Marshal(components[0].Example)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body_text":[["John"]]}`, string(raw))
}

func TestSerialize_NamedBodyExample(t *testing.T) {
	d := NewDraft(FormatNamed)
	d.Body = "Hi {{name}}"
	d.SetExamples(SectionBody, []string{"John"})

	components, err := Serialize(d)
	require.NoError(t, err)

	raw, err := json.Marshal(components[0].Example)
	require.NoError(t, err)
	assert.JSONEq(t, `{"body_text_named_params":[{"param_name":"name","example":"John"}]}`, string(raw))
}

func TestSerialize_FullLayoutOrder(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.HeaderType = HeaderText
	d.HeaderText = "Order {{1}}"
	d.SetExamples(SectionHeader, []string{"#42"})
	d.Body = "Your order {{1}} ships {{2}}"
	d.SetExamples(SectionBody, []string{"#42", "today"})
	d.Footer = "Thanks"
	d.AddButton(ButtonQuickReply)
	require.NoError(t, d.UpdateButton(0, "text", "Stop"))
	d.AddButton(ButtonPhoneNumber)
	require.NoError(t, d.UpdateButton(1, "text", "Call"))
	require.NoError(t, d.UpdateButton(1, "country_code", "55"))
	require.NoError(t, d.UpdateButton(1, "phone_number", "11999990000"))
	d.AddButton(ButtonURL)
	require.NoError(t, d.UpdateButton(2, "url", "https://example.com"))
	d.AddButton(ButtonCopyCode)
	require.NoError(t, d.UpdateButton(3, "offer_code", "SAVE10"))

	components, err := Serialize(d)
	require.NoError(t, err)
	require.Len(t, components, 4)

	types := []ComponentType{}
	for _, c := range components {
		types = append(types, c.Type)
	}
	assert.Equal(t, []ComponentType{ComponentBody, ComponentHeader, ComponentFooter, ComponentButtons}, types)

	header := components[1]
	assert.Equal(t, "TEXT", header.Format)
	assert.Equal(t, []string{"#42"}, header.Example.HeaderText)

	buttons := components[3].Buttons
	assert.Equal(t, WireButton{Type: "QUICK_REPLY", Text: "Stop"}, buttons[0])
	assert.Equal(t, WireButton{Type: "PHONE_NUMBER", Text: "Call", PhoneNumber: "+5511999990000"}, buttons[1])
	assert.Equal(t, WireButton{Type: "URL", URL: "https://example.com", URLType: URLTypeStatic}, buttons[2])
	assert.Equal(t, WireButton{Type: "COPY_CODE", OfferCode: "SAVE10"}, buttons[3])
}

func TestSerialize_MediaHeaderHasNoExample(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.HeaderType = HeaderImage
	d.SetExamples(SectionHeader, []string{"ignored"})
	d.Body = "Look"

	components, err := Serialize(d)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Equal(t, "IMAGE", components[1].Format)
	assert.Nil(t, components[1].Example)
}

func TestSerialize_RefusesInvalidDraft(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.Body = "Hi {{name}}"

	_, err := Serialize(d)
	assert.ErrorIs(t, err, ErrDraftInvalid)
	assert.ErrorIs(t, err, ErrPositionalMixedNamed)
}

func TestSerialize_StaleHeaderTextNotSent(t *testing.T) {
	d := NewDraft(FormatPositional)
	d.Body = "Look"
	require.NoError(t, d.SetField("header_type", "text"))
	require.NoError(t, d.SetField("header_text", "{{1}} {{2}} {{abc}}"))
	require.NoError(t, d.SetField("header_type", "image"))

	components, err := Serialize(d)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Equal(t, Component{Type: ComponentHeader, Format: "IMAGE"}, components[1])
}

func TestSerialize_RefusesMalformedDraft(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
	}{
		{"unknown button", func(d *Draft) { d.Buttons = append(d.Buttons, Button{Type: "FLOW"}) }},
		{"unknown format", func(d *Draft) { d.ParameterFormat = "NAMED" }},
		{"three url buttons", func(d *Draft) {
			d.Buttons = []Button{NewButton(ButtonURL), NewButton(ButtonURL), NewButton(ButtonURL)}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(FormatPositional)
			d.Body = "Hi"
			tt.mutate(&d)

			var err error
			assert.NotPanics(t, func() { _, err = Serialize(d) })
			assert.ErrorIs(t, err, ErrDraftInvalid)
		})
	}
}

func TestSerialize_AuthenticationTemplate(t *testing.T) {
	d := Transition(NewDraft(FormatPositional), SetCategory{Category: CategoryAuthentication})

	components, err := Serialize(d)
	require.NoError(t, err)
	require.Len(t, components, 2)
	assert.Equal(t, WireButton{Type: "OTP", Text: "Copy code", OTPType: CodeDeliveryCopyCode}, components[1].Buttons[0])
}

func TestBuildRequest(t *testing.T) {
	d := NewDraft(FormatNamed)
	d.Name = "order_update"
	d.Language = "pt_BR"
	d.Body = "Hi {{customer_name}}"

	p, err := BuildRequest("conn-1", d)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", p.ConnectionID)
	assert.Equal(t, CategoryMarketing, p.Category)
	assert.Equal(t, FormatNamed, p.ParameterFormat)
	assert.Len(t, p.Components, 1)
}

func TestBuildRequest_Checks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   error
	}{
		{"missing name", func(d *Draft) { d.Name = "" }, ErrDraftInvalid},
		{"bad name", func(d *Draft) { d.Name = "Order Update" }, ErrDraftInvalid},
		{"bad language", func(d *Draft) { d.Language = "!!" }, ErrDraftInvalid},
		{"empty body", func(d *Draft) { d.Body = "  " }, ErrBodyRequired},
		{"unknown format", func(d *Draft) { d.ParameterFormat = "NAMED" }, ErrUnknownFormat},
		{"unknown category", func(d *Draft) { d.Category = "PROMO" }, ErrDraftInvalid},
		{"unknown header type", func(d *Draft) { d.HeaderType = "audio" }, ErrDraftInvalid},
		{"authentication header", func(d *Draft) {
			d.Category = CategoryAuthentication
			d.HeaderType = HeaderImage
		}, ErrDraftInvalid},
		{"unknown button", func(d *Draft) { d.Buttons = []Button{{Type: "FLOW"}} }, ErrDraftInvalid},
		{"two phone buttons", func(d *Draft) {
			d.Buttons = []Button{NewButton(ButtonPhoneNumber), NewButton(ButtonPhoneNumber)}
		}, ErrDraftInvalid},
		{"eleven buttons", func(d *Draft) {
			for range MaxButtons + 1 {
				d.Buttons = append(d.Buttons, NewButton(ButtonQuickReply))
			}
		}, ErrDraftInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft(FormatPositional)
			d.Name = "welcome"
			d.Body = "Hello"
			tt.mutate(&d)

			_, err := BuildRequest("c", d)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
