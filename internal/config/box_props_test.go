package config_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/functionland/fula-gateway/internal/config"
	"github.com/functionland/fula-gateway/internal/gwlog"
)

// recordingLogger captures every Print/Printf call so tests can assert
// a warning was actually emitted, not just that a value came back empty.
type recordingLogger struct {
	fields   map[string]interface{}
	messages *[]string
	levels   *[]gwlog.Level
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{
		fields:   map[string]interface{}{},
		messages: &[]string{},
		levels:   &[]gwlog.Level{},
	}
}

func (l *recordingLogger) Print(level gwlog.Level, v ...interface{}) {
	*l.messages = append(*l.messages, fmt.Sprint(v...))
	*l.levels = append(*l.levels, level)
}

func (l *recordingLogger) Printf(level gwlog.Level, format string, v ...interface{}) {
	*l.messages = append(*l.messages, fmt.Sprintf(format, v...))
	*l.levels = append(*l.levels, level)
}

func (l *recordingLogger) WithField(key string, value interface{}) gwlog.Logger {
	fields := map[string]interface{}{key: value}
	for k, v := range l.fields {
		fields[k] = v
	}
	return &recordingLogger{fields: fields, messages: l.messages, levels: l.levels}
}

func (l *recordingLogger) warnCount() int {
	n := 0
	for _, lvl := range *l.levels {
		if lvl == gwlog.LevelWarn {
			n++
		}
	}
	return n
}

func signedTestToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	signed, err := token.SignedString([]byte("any-key-works-parseunverified-skips-verification"))
	require.NoError(t, err)
	return signed
}

func TestLoadBoxPropertiesMissingFileReturnsEmptyAndLogsWarning(t *testing.T) {
	log := newRecordingLogger()
	secret, ownerID := config.LoadBoxProperties(log, "/nonexistent/path/box-props.json")
	assert.Empty(t, secret)
	assert.Empty(t, ownerID)
	assert.Equal(t, 1, log.warnCount())
}

func TestLoadBoxPropertiesMalformedJSONReturnsEmptyAndLogsWarning(t *testing.T) {
	path := t.TempDir() + "/box-props.json"
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	log := newRecordingLogger()
	secret, ownerID := config.LoadBoxProperties(log, path)
	assert.Empty(t, secret)
	assert.Empty(t, ownerID)
	assert.Equal(t, 1, log.warnCount())
}

func TestLoadBoxPropertiesExtractsSecretAndHashesOwnerID(t *testing.T) {
	token := signedTestToken(t, "user-123")
	path := t.TempDir() + "/box-props.json"
	contents := `{"auto_pin_pairing_secret":"s3cr3t","auto_pin_token":"` + token + `"}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	log := newRecordingLogger()
	secret, ownerID := config.LoadBoxProperties(log, path)
	assert.Equal(t, "s3cr3t", secret)
	assert.Equal(t, config.HashUserID("user-123"), ownerID)
	assert.Len(t, ownerID, 32)
	assert.Zero(t, log.warnCount())
}

func TestLoadBoxPropertiesMalformedTokenLeavesOwnerIDEmptyAndLogsWarning(t *testing.T) {
	path := t.TempDir() + "/box-props.json"
	contents := `{"auto_pin_pairing_secret":"s3cr3t","auto_pin_token":"not-a-jwt"}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	log := newRecordingLogger()
	secret, ownerID := config.LoadBoxProperties(log, path)
	assert.Equal(t, "s3cr3t", secret)
	assert.Empty(t, ownerID)
	assert.Equal(t, 1, log.warnCount())
}

func TestLoadBoxPropertiesEmptySubjectClaimLeavesOwnerIDEmptyAndLogsWarning(t *testing.T) {
	token := signedTestToken(t, "")
	path := t.TempDir() + "/box-props.json"
	contents := `{"auto_pin_token":"` + token + `"}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	log := newRecordingLogger()
	_, ownerID := config.LoadBoxProperties(log, path)
	assert.Empty(t, ownerID)
	assert.Equal(t, 1, log.warnCount())
}

func TestHashUserIDDeterministicAndDomainSeparated(t *testing.T) {
	a := config.HashUserID("alice")
	b := config.HashUserID("alice")
	c := config.HashUserID("bob")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
