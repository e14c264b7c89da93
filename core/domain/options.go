// ABOUTME: Typed access to the per-feed options map
// ABOUTME: Option values are stored loosely and read through typed getters

package domain

import "strings"

// Option names shared across aggregator kinds.
const (
	OptExcludeSelectors      = "exclude_selectors"
	OptIgnoreTitleContains   = "ignore_title_contains"
	OptIgnoreContentContains = "ignore_content_contains"
	OptRegexReplacements     = "regex_replacements"
	OptTraverseMultipage     = "traverse_multipage"
	OptSkipDuplicates        = "skip_duplicates"
	OptUseCurrentTimestamp   = "use_current_timestamp"
	OptGenerateTitleImage    = "generate_title_image"
	OptAddSourceFooter       = "add_source_footer"
	OptDailyPostLimit        = "daily_post_limit"
)

// OptionType enumerates the value types an option may carry
type OptionType string

const (
	OptionBoolean  OptionType = "boolean"
	OptionInteger  OptionType = "integer"
	OptionFloat    OptionType = "float"
	OptionString   OptionType = "string"
	OptionPassword OptionType = "password"
	OptionChoice   OptionType = "choice"
)

// OptionSpec describes one option an aggregator kind understands,
// including the widget hint the admin UI uses to render it.
type OptionSpec struct {
	Name    string
	Type    OptionType
	Widget  string // "text", "textarea" or "json" for strings
	Default interface{}
	Choices []string
}

// Options is the per-feed option value map
type Options map[string]interface{}

// Bool returns the named option as a bool, or def when unset
func (o Options) Bool(name string, def bool) bool {
	if v, ok := o[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the named option as an int, or def when unset
func (o Options) Int(name string, def int) int {
	if v, ok := o[name]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

// String returns the named option as a string, or def when unset
func (o Options) String(name string, def string) string {
	if v, ok := o[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// StringList returns the named option as a list of strings.
// Accepts either a []string, a []interface{} of strings, or a
// newline-separated string (the textarea widget stores the latter).
func (o Options) StringList(name string) []string {
	v, ok := o[name]
	if !ok || v == nil {
		return nil
	}

	switch l := v.(type) {
	case []string:
		return l
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, line := range strings.Split(l, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
		return out
	}

	return nil
}

// DailyPostLimit returns the configured daily limit.
// -1 means unlimited, 0 means disabled, n>0 is the daily target.
func (o Options) DailyPostLimit() int {
	return o.Int(OptDailyPostLimit, -1)
}
