// Package draftfile reads and writes template drafts as files.
//
// The format follows the file extension:
//
//	order_update.yaml / .yml  YAML
//	order_update.toml         TOML
//	order_update.json         JSON
//
// A YAML draft looks like:
//
//	category: UTILITY
//	name: order_update
//	language: en_US
//	parameter_format: positional
//	header_type: none
//	body: Your order {{1}} has shipped
//	examples:
//	  body: ["#1042"]
package draftfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a draft file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported draft file extension %q (use .yaml, .toml or .json)", filepath.Ext(path))
	}
}

// ReadFile reads the draft stored at path.
func ReadFile(path string) (composer.Draft, error) {
	format, err := FormatFor(path)
	if err != nil {
		return composer.Draft{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return composer.Draft{}, fmt.Errorf("draft file %s not found", path)
		}
		return composer.Draft{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := Decode(data, format)
	if err != nil {
		return composer.Draft{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

// Decode parses a draft. Fields the file leaves out take the defaults of a
// new draft in the file's parameter format. Enum values are accepted in any
// case; unknown values and buttons beyond the caps are rejected.
func Decode(data []byte, format Format) (composer.Draft, error) {
	var head struct {
		ParameterFormat string `json:"parameter_format" yaml:"parameter_format" toml:"parameter_format"`
	}
	if err := unmarshal(data, format, &head); err != nil {
		return composer.Draft{}, err
	}
	pf, err := composer.ParseParameterFormat(head.ParameterFormat)
	if err != nil {
		return composer.Draft{}, err
	}

	d := composer.NewDraft(pf)
	if err := unmarshal(data, format, &d); err != nil {
		return composer.Draft{}, err
	}
	d.ParameterFormat = pf
	normalize(&d)
	if err := d.CheckStructure(); err != nil {
		return composer.Draft{}, err
	}
	return d, nil
}

func normalize(d *composer.Draft) {
	d.Category = composer.Category(strings.ToUpper(string(d.Category)))
	d.MarketingType = composer.MarketingType(strings.ToUpper(string(d.MarketingType)))
	d.HeaderType = composer.HeaderType(strings.ToLower(string(d.HeaderType)))
	if d.HeaderType == "" {
		d.HeaderType = composer.HeaderNone
	}
	for i := range d.Buttons {
		d.Buttons[i].Type = composer.ButtonType(strings.ToUpper(string(d.Buttons[i].Type)))
	}
}

func unmarshal(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported draft format %q", format)
	}
}

// Encode renders a draft in the given format.
func Encode(d composer.Draft, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatTOML:
		return toml.Marshal(d)
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported draft format %q", format)
	}
}

// WriteFile writes d to path in the format its extension names.
func WriteFile(path string, d composer.Draft) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(d, format)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
