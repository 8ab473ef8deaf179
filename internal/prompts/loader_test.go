package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_EmbeddedPrompts(t *testing.T) {
	for _, file := range []string{Triage, Reply} {
		for _, key := range []string{"system", "user"} {
			p, err := Get(file, key)
			require.NoError(t, err, "%s/%s", file, key)
			assert.NotEmpty(t, p)
		}
	}
}

func TestGet_TriageSystemPromptRules(t *testing.T) {
	p := MustGet(Triage, "system")
	assert.Contains(t, p, "Return ONLY valid JSON")
	assert.Contains(t, p, "LOW, MEDIUM, HIGH")
}

func TestGet_ReplySystemPromptGuardrails(t *testing.T) {
	p := MustGet(Reply, "system")
	assert.Contains(t, p, "ONLY in the requested language")
	assert.Contains(t, p, "refunds")
	assert.Contains(t, p, "Never blame the customer")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "system")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(Triage, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "system")
	})
}

func TestFormat(t *testing.T) {
	got := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", got)
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	got := Format("{{.A}} {{.B}}", map[string]string{
		"A": "{{.B}}",
		"B": "b",
	})
	assert.Equal(t, "{{.B}} b", got)
}

func TestFormat_UnknownPlaceholderKept(t *testing.T) {
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", map[string]string{}))
}

func TestList(t *testing.T) {
	keys, err := List(Triage)
	require.NoError(t, err)
	assert.Equal(t, []string{"system", "user"}, keys)
}
