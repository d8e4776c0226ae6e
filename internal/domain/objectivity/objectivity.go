// Package objectivity flags event descriptions that read as interpretation
// rather than observation. The check is a fixed list of phrase patterns; it
// is a prompt for the user to rephrase, not a classifier.
package objectivity

import "regexp"

// Hint is shown to the user when a description is flagged.
const Hint = `检测到主观描述。试着用"发生了什么"代替"ta为什么这样做"`

// Category names a class of subjective language.
type Category string

// Pattern categories, in evaluation order.
const (
	Absolutist   Category = "absolutist"
	Intent       Category = "intent"
	Certainty    Category = "certainty"
	MindReading  Category = "mind_reading"
	Persecutory  Category = "persecutory"
	categoryNone Category = ""
)

type rule struct {
	category Category
	pattern  *regexp.Regexp
}

var rules = []rule{
	{
		category: Absolutist,
		pattern: regexp.MustCompile(
			`总是|从来|永远|一直都|每次都|(?i:\b(always|never|every\s+time|all\s+the\s+time)\b)`,
		),
	},
	{
		category: Intent,
		pattern: regexp.MustCompile(
			`故意|有意|成心|(?i:\b(deliberately|on\s+purpose|intentionally)\b)`,
		),
	},
	{
		category: Certainty,
		pattern: regexp.MustCompile(
			`就是|明显|显然|肯定|(?i:\b(obviously|clearly|definitely)\b)`,
		),
	},
	{
		category: MindReading,
		pattern: regexp.MustCompile(
			`他觉得|她认为|他们以为|(?i:\b(he|she|they)\s+(thinks?|believes?|assumed?)\b)`,
		),
	},
	{
		category: Persecutory,
		pattern: regexp.MustCompile(
			`针对我|为了气我|看不起我|(?i:\b(targeting\s+me|to\s+spite\s+me|looks?\s+down\s+on\s+me|looking\s+down\s+on\s+me)\b)`,
		),
	},
}

// Check reports whether text contains subjective language.
func Check(text string) bool {
	return Classify(text) != categoryNone
}

// Classify returns the first matching category, or "" when text reads as
// objective.
func Classify(text string) Category {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}
	return categoryNone
}

// Warning returns Hint when text is flagged and "" otherwise.
func Warning(text string) string {
	if Check(text) {
		return Hint
	}
	return ""
}
