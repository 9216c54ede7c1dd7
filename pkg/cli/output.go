package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
	// FormatYAML is YAML output, suitable for pasting into config files.
	FormatYAML OutputFormat = "yaml"
)

// Formatter renders command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter renders output as plain text.
type TextFormatter struct{}

func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter renders output as indented JSON.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter renders output as YAML. Generated key material is
// printed this way so it can be pasted straight into the auth section
// of a config file.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data interface{}) ([]byte, error) {
	return yaml.Marshal(data)
}

func (f *YAMLFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

// Okf prints a ✓-prefixed status line.
func Okf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// Failf prints a ✗-prefixed status line.
func Failf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✗ "+format+"\n", args...)
}

// NewFormatter creates a formatter for the specified format. Unknown
// formats fall back to text.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}
