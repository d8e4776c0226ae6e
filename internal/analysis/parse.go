package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/clarity-api/internal/domain"
)

// fencePattern matches markdown code fences, with or without a language tag.
var fencePattern = regexp.MustCompile("```[a-zA-Z]*")

var validate = validator.New()

// ParseSeparation extracts the separation document from a model reply.
// Code fences and any prose around the outermost JSON object are ignored.
// Strings are trimmed; a list that ends up empty, or an action without an
// action or effect, fails with ErrIncompleteResponse.
func ParseSeparation(reply string) (*domain.Separation, error) {
	text := strings.TrimSpace(fencePattern.ReplaceAllString(reply, ""))

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var sep domain.Separation
	if err := json.Unmarshal([]byte(text[start:end+1]), &sep); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}

	trimAll(sep.Uncontrollable)
	trimAll(sep.Controllable)
	for i := range sep.Actions {
		sep.Actions[i].Action = strings.TrimSpace(sep.Actions[i].Action)
		sep.Actions[i].Effect = strings.TrimSpace(sep.Actions[i].Effect)
	}

	if err := validate.Struct(&sep); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}
	return &sep, nil
}

func trimAll(items []string) {
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
}
