package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"absolute_unchanged", "/etc/triage.json", "/etc/triage.json"},
		{"relative_unchanged", "config.json", "config.json"},
		{"tilde_alone", "~", home},
		{"tilde_prefix", "~/.config/triage/config.json", filepath.Join(home, ".config/triage/config.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestGetConfigPath_Priority(t *testing.T) {
	t.Setenv("TRIAGE_CONFIG", "/env/config.json")
	assert.Equal(t, "/flag/config.json", getConfigPath("/flag/config.json"))
	assert.Equal(t, "/env/config.json", getConfigPath(""))

	t.Setenv("TRIAGE_CONFIG", "")
	assert.Contains(t, getConfigPath(""), "config.json")
}

func TestGetCredentialsPath_Priority(t *testing.T) {
	t.Setenv("TRIAGE_CREDENTIALS", "/env/credentials.json")
	assert.Equal(t, "/env/credentials.json", getCredentialsPath("/cfg/credentials.json"))

	t.Setenv("TRIAGE_CREDENTIALS", "")
	assert.Equal(t, "/cfg/credentials.json", getCredentialsPath("/cfg/credentials.json"))
	assert.Contains(t, getCredentialsPath(""), "credentials.json")
}

func TestReadMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")
	content := `{"id":"m1","category":"notice","title":"Field Trip meeting Friday","requires_signature":true}`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	msg, err := readMessage(path)
	assert.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	assert.True(t, msg.RequiresSignature)
}

func TestReadMessage_Invalid(t *testing.T) {
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "bad.json")
	assert.NoError(t, os.WriteFile(badJSON, []byte("{nope"), 0o644))
	_, err := readMessage(badJSON)
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	assert.NoError(t, os.WriteFile(noID, []byte(`{"title":"x"}`), 0o644))
	_, err = readMessage(noID)
	assert.Error(t, err)

	_, err = readMessage(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
