package composer

import (
	"strconv"
)

// namedMarker is the empty named slot inserted under the named format.
const namedMarker = "{{}}"

// Insertion is the result of InsertVariable. Caret is a rune offset into
// Text; the presentation layer restores focus and selection after render.
type Insertion struct {
	Text    string `json:"text"`
	Caret   int    `json:"caret"`
	Applied bool   `json:"applied"`
}

// InsertVariable splices a new placeholder into a section, replacing the
// rune range [selStart, selEnd). It is a no-op when the header already has
// a placeholder or when the field currently fails validation.
func (d *Draft) InsertVariable(section Section, selStart, selEnd int) Insertion {
	text := d.Text(section)
	runes := []rune(text)

	selStart = clamp(selStart, 0, len(runes))
	selEnd = clamp(selEnd, selStart, len(runes))
	unchanged := Insertion{Text: text, Caret: selEnd}

	_, idents := Extract(text)
	if section == SectionHeader && len(idents) >= 1 {
		return unchanged
	}
	if Validate(text, d.ParameterFormat, section) != nil {
		return unchanged
	}

	var token string
	var caret int
	switch d.ParameterFormat {
	case FormatNamed:
		token = namedMarker
		caret = selStart + 2
	default:
		next := 1
		for _, id := range idents {
			if !isNumeric(id) {
				continue
			}
			if n, err := strconv.Atoi(id); err == nil && n+1 > next {
				next = n + 1
			}
		}
		token = "{{" + strconv.Itoa(next) + "}}"
		caret = selStart + len([]rune(token))
	}

	out := make([]rune, 0, len(runes)+len(token))
	out = append(out, runes[:selStart]...)
	out = append(out, []rune(token)...)
	out = append(out, runes[selEnd:]...)

	newText := string(out)
	d.setText(section, newText)
	return Insertion{Text: newText, Caret: caret, Applied: true}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
