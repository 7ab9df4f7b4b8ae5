package intake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare-labs/intake-api/internal/domain"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{
			name: "fenced json block",
			text: "Here you go:\n```json\n{\"recipient_information\":{\"a\":\"b\"}}\n```",
			ok:   true,
		},
		{
			name: "untagged fence",
			text: "```\n{\"care_requirements\":{}}\n```",
			ok:   true,
		},
		{
			name: "bare json without fence",
			text: "{\"recipient_information\":{\"age\":82}}",
			ok:   true,
		},
		{
			name: "plain prose",
			text: "I cannot produce JSON right now, sorry.",
			ok:   false,
		},
		{
			name: "malformed json inside fence",
			text: "```json\n{\"recipient_information\": \n```",
			ok:   false,
		},
		{
			name: "bare json null",
			text: "null",
			ok:   false,
		},
		{
			name: "fenced json null",
			text: "```json\nnull\n```",
			ok:   false,
		},
		{
			name: "empty response",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, ok := parseProfile(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.NotNil(t, profile)
			}
		})
	}
}

func TestParseProfileFencedTakesPrecedence(t *testing.T) {
	text := "prose before\n```json\n{\"recipient_information\":{\"a\":\"b\"}}\n```\nprose after"
	profile, ok := parseProfile(text)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": "b"}, profile["recipient_information"])
}

// scriptedModel returns queued replies in order and records every request.
type scriptedModel struct {
	replies []string
	errs    []error
	calls   []domain.ChatRequest
}

func (m *scriptedModel) Send(_ context.Context, req domain.ChatRequest) (string, error) {
	m.calls = append(m.calls, req)
	i := len(m.calls) - 1
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	reply := ""
	if i < len(m.replies) {
		reply = m.replies[i]
	}
	return reply, err
}

func TestGenerateFirstAttemptSucceeds(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"```json\n{\"recipient_information\":{\"age\":82}}\n```",
	}}
	sess := newTestSession()
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "My mother is 82."})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	outcome, err := newExtractor(model).Generate(context.Background(), sess, now)

	require.NoError(t, err)
	require.True(t, outcome.parsed)
	require.Len(t, model.calls, 1)

	// The directive call carries the full turn history as context.
	assert.Equal(t, sess.Turns(), model.calls[0].History)

	meta := outcome.profile["metadata"].(map[string]any)
	assert.Equal(t, "en", meta["language"])
	assert.Equal(t, "1.0", meta["version"])
	assert.Equal(t, "2026-03-01T12:00:00Z", meta["created_at"])
}

func TestGenerateRetriesOnceWithFailedExchangeInContext(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Sure! Here is a summary of what we talked about...",
		"{\"care_requirements\":{\"bathing\":true}}",
	}}
	sess := newTestSession()

	outcome, err := newExtractor(model).Generate(context.Background(), sess, time.Now())

	require.NoError(t, err)
	require.True(t, outcome.parsed)
	require.Len(t, model.calls, 2)

	// The repair call must include the first directive and the model's
	// unparsable reply, since the gateway keeps no memory.
	retryHistory := model.calls[1].History
	require.Len(t, retryHistory, 2)
	assert.Equal(t, domain.RoleUser, retryHistory[0].Role)
	assert.Contains(t, retryHistory[0].Content, "JSON")
	assert.Equal(t, domain.RoleAssistant, retryHistory[1].Role)
	assert.Contains(t, retryHistory[1].Content, "summary")
}

func TestGenerateGivesUpAfterExactlyTwoCalls(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"plain prose, no json at all",
		"still just prose",
	}}
	sess := newTestSession()

	outcome, err := newExtractor(model).Generate(context.Background(), sess, time.Now())

	require.NoError(t, err)
	assert.False(t, outcome.parsed)
	assert.Equal(t, "JSON_PARSE_ERROR", outcome.errTag)
	assert.NotEmpty(t, outcome.message)
	assert.Len(t, model.calls, 2)
}

func TestGenerateNullResponseTreatedAsParseFailure(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"null",
		"null",
	}}
	sess := newTestSession()

	outcome, err := newExtractor(model).Generate(context.Background(), sess, time.Now())

	require.NoError(t, err)
	assert.False(t, outcome.parsed)
	assert.Equal(t, "JSON_PARSE_ERROR", outcome.errTag)
	assert.Len(t, model.calls, 2)
}

func TestGenerateEmptyResponseTreatedAsParseFailure(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"",
		"{\"schedule_preferences\":{}}",
	}}
	sess := newTestSession()

	outcome, err := newExtractor(model).Generate(context.Background(), sess, time.Now())

	require.NoError(t, err)
	assert.True(t, outcome.parsed)
	assert.Len(t, model.calls, 2)
}
