// ABOUTME: Regex rewrite rules parsed from per-feed configuration lines
// ABOUTME: Hand-written pattern|replacement tokenizer with backslash-pipe escape

package content

import (
	"regexp"
	"strings"

	"yana/core/interfaces"
)

// Replacement is one compiled rewrite rule
type Replacement struct {
	Pattern *regexp.Regexp
	Replace string
}

// ParseReplacements compiles configuration lines of the form
// "pattern|replacement". A backslash-escaped pipe (\|) is a literal pipe;
// the first unescaped pipe separates pattern from replacement. Empty lines
// and lines starting with # are comments. Malformed lines and invalid
// patterns are skipped with a warning.
func ParseReplacements(lines []string, logger interfaces.Logger) []Replacement {
	var rules []Replacement

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		pattern, replace, ok := splitRule(trimmed)
		if !ok {
			warnRule(logger, line, "missing separator")
			continue
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			warnRule(logger, line, err.Error())
			continue
		}

		rules = append(rules, Replacement{Pattern: re, Replace: replace})
	}

	return rules
}

// splitRule scans for the first unescaped pipe and unescapes \| on both sides
func splitRule(line string) (pattern, replace string, ok bool) {
	var left strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			// \| is not a separator; keep the backslash so the regex
			// engine also reads the pipe as a literal
			left.WriteByte('\\')
			left.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '|' {
			return left.String(), unescapePipes(line[i+1:]), true
		}
		left.WriteByte(c)
	}

	return "", "", false
}

// unescapePipes rewrites \| to | in the replacement side
func unescapePipes(s string) string {
	return strings.ReplaceAll(s, `\|`, `|`)
}

// ApplyReplacements runs the rules in order over the content
func ApplyReplacements(content string, rules []Replacement) string {
	for _, r := range rules {
		content = r.Pattern.ReplaceAllString(content, r.Replace)
	}
	return content
}

func warnRule(logger interfaces.Logger, line, reason string) {
	if logger != nil {
		logger.Warn("skipping malformed replacement rule", map[string]interface{}{
			"line":   line,
			"reason": reason,
		})
	}
}
