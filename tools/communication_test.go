package tools

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSlackMessage_NotConfiguredWithoutToken(t *testing.T) {
	os.Unsetenv("SLACK_BOT_TOKEN")
	result := SendSlackMessage(context.Background(), "#general", "hello", "", "", "", "")
	assert.Equal(t, "not_configured", result["status"])
}

func TestSendEmailSMTP_NotConfiguredWithoutHost(t *testing.T) {
	result := SendEmailSMTP(context.Background(), "a@example.com", "subj", "body", "", "", "", "")
	assert.Equal(t, "not_configured", result["status"])
}

func TestSendEmailSMTP_RejectsEmptyRecipients(t *testing.T) {
	path := writeTempCommConfig(t, `{"smtp": {"host": "smtp.example.com", "port": 587, "from_email": "noreply@example.com"}}`)
	ctx := communicationContextWithConfig(path)

	result := SendEmailSMTP(ctx, "", "subj", "body", "", "", "", "")
	assert.Equal(t, "failed", result["status"])
	assert.Equal(t, "no_recipients", result["reason"])
}

func TestParseCSVEmails_TrimsAndDropsBlank(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, parseCSVEmails("a@x.com, , b@x.com"))
}

func TestParseStringListJSON_RejectsNonArray(t *testing.T) {
	_, ok := parseStringListJSON(`{"not": "array"}`)
	assert.False(t, ok)
}

func writeTempCommConfig(t *testing.T, contents string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "comm-*.json")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func communicationContextWithConfig(path string) context.Context {
	return WithCommunicationConfigPath(context.Background(), path)
}
