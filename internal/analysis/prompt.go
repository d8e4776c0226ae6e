package analysis

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var defaultPromptTemplate string

// emotionSeparator joins emotion labels in the prompt.
const emotionSeparator = "、"

// promptData is the data passed to the prompt template.
type promptData struct {
	Emotions string
	Event    string
	Need     string
}

// PromptBuilder renders the separation prompt.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the template at path, or the built-in template when
// path is empty.
func NewPromptBuilder(path string) (*PromptBuilder, error) {
	content := defaultPromptTemplate
	name := "separation"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
		content = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt for one request.
func (b *PromptBuilder) Build(emotions []string, event, need string) (string, error) {
	if err := validateInputs(emotions, event, need); err != nil {
		return "", err
	}

	data := promptData{
		Emotions: strings.Join(emotions, emotionSeparator),
		Event:    strings.TrimSpace(event),
		Need:     strings.TrimSpace(need),
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
