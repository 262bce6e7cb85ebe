package authoring

import (
	"fmt"
	"slices"
	"strings"
)

// Blank marks the gap in an initial string.
const Blank = "___"

const (
	minChoices = 3
	maxChoices = 5
	maxTextLen = 300
)

// ValidationError describes why an authored item was rejected.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("authoring check %q: %s", e.Check, e.Message)
}

// CheckItem runs the structural checks every served item must pass.
func CheckItem(it *Item, prior []string) *ValidationError {
	fail := func(check, format string, args ...any) *ValidationError {
		return &ValidationError{Check: check, Message: fmt.Sprintf(format, args...)}
	}

	if len(it.InitialStrings) == 0 || len(it.MiddleStrings) == 0 {
		return fail("structure", "initial and middle strings are required")
	}
	if n := len(it.FinalStrings); n < minChoices || n > maxChoices {
		return fail("choices", "got %d choices, want %d to %d", n, minChoices, maxChoices)
	}
	if it.Answer < 0 || it.Answer >= len(it.FinalStrings) {
		return fail("answer", "answer index %d is out of range", it.Answer)
	}

	blanks := 0
	for _, s := range it.InitialStrings {
		if len(s) > maxTextLen {
			return fail("structure", "initial string exceeds %d characters", maxTextLen)
		}
		blanks += strings.Count(s, Blank)
	}
	if blanks != 1 {
		return fail("blank", "want exactly one %s, got %d", Blank, blanks)
	}

	seen := make(map[string]bool, len(it.FinalStrings))
	for _, c := range it.FinalStrings {
		key := strings.ToLower(choiceText(c))
		if key == "" {
			return fail("choices", "empty choice")
		}
		if seen[key] {
			return fail("choices", "duplicate choice %q", c)
		}
		seen[key] = true
	}

	if slices.Contains(prior, it.Prompt()) {
		return fail("dedup", "sentence already served")
	}
	return nil
}

// choiceText strips a leading "a) " label.
func choiceText(c string) string {
	c = strings.TrimSpace(c)
	if len(c) > 2 && c[1] == ')' {
		c = c[2:]
	}
	return strings.TrimSpace(c)
}
