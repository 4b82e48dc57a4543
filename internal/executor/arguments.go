package executor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ArgumentParseError indicates that a tool call's raw argument text could
// not be decoded into a JSON object.
type ArgumentParseError struct {
	Raw string
	Err error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("invalid tool arguments: %v", e.Err)
}

func (e *ArgumentParseError) Unwrap() error {
	return e.Err
}

// Known artifacts from models that interleave two incompatible
// tool-calling syntaxes in one response: parameter markup tags, tool-call
// wrapper tags (with or without a namespace prefix), and a trailing
// unterminated escape.
var (
	parameterTagPattern = regexp.MustCompile(`</?parameter(?:\s+name="[^"]*")?\s*>`)
	wrapperTagPattern   = regexp.MustCompile(`(?i)</?[\w.-]*:?tool[_-]?calls?>`)
)

// ParseToolArguments decodes the raw JSON argument text of a tool call.
// The top level must be a JSON object; arrays and primitives are
// rejected. A "reason" field, if present, is sanitized for known
// malformed-model artifacts. Sanitization is best-effort and never fails:
// text that matches no pattern passes through untouched.
func ParseToolArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// Models routinely emit "" for zero-argument tools.
		return map[string]any{}, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, &ArgumentParseError{Raw: raw, Err: err}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ArgumentParseError{Raw: raw, Err: fmt.Errorf("top-level value is %T, expected object", decoded)}
	}

	if reason, ok := obj["reason"].(string); ok {
		obj["reason"] = SanitizeReason(reason)
	}
	return obj, nil
}

// SanitizeReason strips known malformed-model artifacts from a reason
// string: stray parameter markup, leftover tool-call wrapper tags, and a
// trailing unterminated escape sequence. The result is trimmed.
func SanitizeReason(s string) string {
	s = parameterTagPattern.ReplaceAllString(s, "")
	s = wrapperTagPattern.ReplaceAllString(s, "")

	// A trailing odd-length backslash run is an unterminated escape left
	// over from truncated model output.
	trailing := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		trailing++
	}
	if trailing%2 == 1 {
		s = s[:len(s)-1]
	}

	return strings.TrimSpace(s)
}
