// Package roomtext normalizes raw in-room speech and detects instructions
// addressed to the room computer. All functions are pure string transforms.
package roomtext

import (
	"regexp"
	"strings"
)

const computerPrefix = "computer"

var dbrefPattern = regexp.MustCompile(`#\d+`)

// NormalizeSayMessage trims whitespace, surrounding quote characters and
// leading punctuation from a raw say message. Empty input yields "".
func NormalizeSayMessage(message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return ""
	}
	msg = strings.Trim(msg, ` "'`)
	msg = strings.TrimLeft(msg, " ,:;")
	return strings.TrimSpace(msg)
}

// IsComputerAddressed reports whether a normalized message is addressed to
// the computer ("computer ", "computer:" or "computer,").
func IsComputerAddressed(normalized string) bool {
	low := strings.ToLower(normalized)
	return strings.HasPrefix(low, computerPrefix+" ") ||
		strings.HasPrefix(low, computerPrefix+":") ||
		strings.HasPrefix(low, computerPrefix+",")
}

// ExtractComputerInstruction returns the instruction text of a normalized,
// computer-addressed message, or "" if the message is not addressed to the
// computer.
func ExtractComputerInstruction(normalized string) string {
	if normalized == "" || !IsComputerAddressed(normalized) {
		return ""
	}
	after := normalized[len(computerPrefix):]
	after = strings.TrimLeft(after, " :,")
	return strings.TrimSpace(after)
}

// ExtractDbref returns the first "#<digits>" token found anywhere in text,
// or "" if there is none.
func ExtractDbref(text string) string {
	if text == "" {
		return ""
	}
	return dbrefPattern.FindString(text)
}
