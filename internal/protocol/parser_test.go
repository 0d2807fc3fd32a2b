package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlainTextReply(t *testing.T) {
	data, msg := Parse("Ich habe dazu noch eine Frage: wie tief ist die Baugrube?")

	assert.Empty(t, data)
	assert.Equal(t, "Ich habe dazu noch eine Frage: wie tief ist die Baugrube?", msg)
}

func TestParseDualChannelReply(t *testing.T) {
	data, msg := Parse("{\"A\":{\"B\":\"v\"}}\n\nHello")

	assert.Equal(t, map[string]any{"A": map[string]any{"B": "v"}}, data)
	assert.Equal(t, "Hello", msg)
}

func TestParseJSONOnlyReply(t *testing.T) {
	data, msg := Parse(`{"Feldarbeiten":{"Untergrundverhältnisse":"Sand"}}`)

	assert.Equal(t, map[string]any{"Feldarbeiten": map[string]any{"Untergrundverhältnisse": "Sand"}}, data)
	assert.Equal(t, "", msg)
}

func TestParseFencedJSONReply(t *testing.T) {
	raw := "```json\n{\"A\":{\"B\":\"v\"}}\n```\n\nHello"
	fenced, fencedMsg := Parse(raw)
	plain, plainMsg := Parse("{\"A\":{\"B\":\"v\"}}\n\nHello")

	assert.Equal(t, plain, fenced)
	assert.Equal(t, plainMsg, fencedMsg)
}

func TestParseMalformedJSONFallsBack(t *testing.T) {
	raw := "{\"A\": not json at all}\n\nHello"
	data, msg := Parse(raw)

	assert.Empty(t, data)
	assert.Equal(t, raw, msg)
}

func TestParseStripsCitationMarkers(t *testing.T) {
	data, msg := Parse("{\"A\":{\"B\":\"v\"}}\n\nSiehe Laborbericht【9:0†source】.")

	assert.Equal(t, map[string]any{"A": map[string]any{"B": "v"}}, data)
	assert.Equal(t, "Siehe Laborbericht.", msg)
}

func TestParseEmptyReply(t *testing.T) {
	data, msg := Parse("   ")

	assert.Empty(t, data)
	assert.Equal(t, "", msg)
}
