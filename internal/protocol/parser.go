// Package protocol decodes the dual-channel reply contract the assistant
// is instructed to follow: a JSON object with extracted values, a blank
// line, then free text for the user.
package protocol

import (
	"encoding/json"
	"regexp"
	"strings"
)

// citationMarkerRE matches inline source annotations the assistant channel
// injects into message text, e.g. 【9:0†source】.
var citationMarkerRE = regexp.MustCompile(`【[^】]*】`)

// Parse splits a raw assistant reply into extracted data and the
// human-readable message. It never fails: any reply that violates the
// contract degrades to empty data with the full text as the message.
func Parse(raw string) (map[string]any, string) {
	raw = citationMarkerRE.ReplaceAllString(raw, "")

	data := map[string]any{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return data, ""
	}

	if trimmed[0] != '{' && trimmed[0] != '[' && !strings.HasPrefix(trimmed, "```") {
		// Non-compliant reply: no structured part at all.
		return data, trimmed
	}

	jsonPart, humanPart, found := strings.Cut(trimmed, "\n\n")
	if !found {
		humanPart = ""
	}

	jsonPart = stripCodeFence(jsonPart)

	if err := json.Unmarshal([]byte(jsonPart), &data); err != nil {
		// Malformed JSON part: degrade to the whole reply as message.
		return map[string]any{}, trimmed
	}

	return data, strings.TrimSpace(humanPart)
}

// stripCodeFence removes a surrounding markdown code fence (``` or
// ```json) from a candidate JSON block, leaving the content between the
// fence lines.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	end := len(lines)
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}

	return strings.Join(lines[1:end], "\n")
}
