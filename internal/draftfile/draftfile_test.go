package draftfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nebari-dev/wabastudio/internal/composer"
)

func sampleDraft() composer.Draft {
	d := composer.NewDraft(composer.FormatPositional)
	d.Category = composer.CategoryUtility
	d.Name = "order_update"
	d.Body = "Your order {{1}} has shipped"
	d.Footer = "Reply STOP to opt out"
	d.Examples.Body = []string{"#1042"}
	d.Buttons = []composer.Button{{Type: composer.ButtonQuickReply, Text: "Track"}}
	return d
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"draft.yaml", FormatYAML, false},
		{"draft.YML", FormatYAML, false},
		{"dir/draft.toml", FormatTOML, false},
		{"draft.json", FormatJSON, false},
		{"draft.txt", "", true},
		{"draft", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err != nil) != tt.err {
			t.Errorf("FormatFor(%q) error = %v, want error %v", tt.path, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteAndReadEachFormat(t *testing.T) {
	dir := t.TempDir()
	want := sampleDraft()

	for _, name := range []string{"draft.yaml", "draft.toml", "draft.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteFile(path, want); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ReadFile() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecodeFillsDefaults(t *testing.T) {
	src := []byte("name: welcome\nbody: Hi {{first_name}}\nparameter_format: named\n")

	d, err := Decode(src, FormatYAML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if d.ParameterFormat != composer.FormatNamed {
		t.Errorf("ParameterFormat = %q, want %q", d.ParameterFormat, composer.FormatNamed)
	}
	if d.Category != composer.CategoryMarketing {
		t.Errorf("Category = %q, want default %q", d.Category, composer.CategoryMarketing)
	}
	if d.Language != composer.DefaultLanguage {
		t.Errorf("Language = %q, want default %q", d.Language, composer.DefaultLanguage)
	}
	if d.HeaderType != composer.HeaderNone {
		t.Errorf("HeaderType = %q, want %q", d.HeaderType, composer.HeaderNone)
	}
}

func TestDecodeNormalizesCase(t *testing.T) {
	src := []byte(`parameter_format: NAMED
category: utility
header_type: Text
header_text: Hello
body: Hi {{first_name}}
buttons:
  - type: quick_reply
    text: Stop
`)

	d, err := Decode(src, FormatYAML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if d.ParameterFormat != composer.FormatNamed {
		t.Errorf("ParameterFormat = %q, want %q", d.ParameterFormat, composer.FormatNamed)
	}
	if d.Category != composer.CategoryUtility || d.HeaderType != composer.HeaderText {
		t.Errorf("Category = %q, HeaderType = %q", d.Category, d.HeaderType)
	}
	if d.Buttons[0].Type != composer.ButtonQuickReply {
		t.Errorf("button type = %q, want %q", d.Buttons[0].Type, composer.ButtonQuickReply)
	}

	// Named rules apply to a draft whose file spelled the format in capitals.
	d.Name = "welcome"
	d.Body = "Hi {{First Name}} {{1}}"
	if _, err := composer.BuildRequest("c", d); !errors.Is(err, composer.ErrNamedMixedNumeric) {
		t.Errorf("BuildRequest() error = %v, want ErrNamedMixedNumeric", err)
	}
}

func TestDecodeRejectsMalformedDrafts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown format", "parameter_format: mustache\nbody: Hi\n", "unknown parameter format"},
		{"unknown category", "category: PROMO\nbody: Hi\n", "unknown category"},
		{"unknown header", "header_type: audio\nbody: Hi\n", "unknown header type"},
		{"unknown button", "body: Hi\nbuttons:\n  - type: FLOW\n", `unknown type "FLOW"`},
		{"too many urls", "body: Hi\nbuttons:\n  - type: URL\n  - type: URL\n  - type: URL\n", "at most 2 URL buttons"},
		{"two phones", "body: Hi\nbuttons:\n  - type: PHONE_NUMBER\n  - type: PHONE_NUMBER\n", "at most 1 PHONE_NUMBER buttons"},
		{"eleven buttons", "body: Hi\nbuttons:\n" + strings.Repeat("  - type: QUICK_REPLY\n", 11), "at most 10 buttons"},
		{"authentication header", "category: AUTHENTICATION\nheader_type: text\nbody: Hi\n", "cannot have a header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), FormatYAML)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Decode() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadFile(filepath.Join(dir, "missing.yaml")); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("ReadFile(missing) error = %v, want not found", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("not valid toml = {{{"), 0644)
	if _, err := ReadFile(bad); err == nil {
		t.Error("ReadFile() should return error for invalid TOML")
	}

	if _, err := ReadFile(filepath.Join(dir, "draft.ini")); err == nil {
		t.Error("ReadFile() should reject unknown extensions")
	}
}

func TestDigestIgnoresFileFormat(t *testing.T) {
	dir := t.TempDir()
	d := sampleDraft()

	yamlPath := filepath.Join(dir, "a.yaml")
	tomlPath := filepath.Join(dir, "b.toml")
	if err := WriteFile(yamlPath, d); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(tomlPath, d); err != nil {
		t.Fatal(err)
	}

	fromYAML, _ := ReadFile(yamlPath)
	fromTOML, _ := ReadFile(tomlPath)
	a, err := Digest(fromYAML)
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	b, _ := Digest(fromTOML)
	if a != b {
		t.Errorf("digests differ: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "sha256:") || len(a) != len("sha256:")+64 {
		t.Errorf("Digest() = %q, want sha256:<64 hex>", a)
	}

	d.Body = "Your parcel {{1}} has shipped"
	if c, _ := Digest(d); c == a {
		t.Error("Digest() should change when the body changes")
	}
}
