package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homecare-labs/intake-api/internal/domain"
)

func newTestSession() *Session {
	user := domain.UserContext{UserID: "user-1", Name: "Alex"}
	return newSession("sess-1", user, "en", time.Now())
}

func TestSessionAppendKeepsOrder(t *testing.T) {
	sess := newTestSession()

	sess.Append(domain.Turn{Role: domain.RoleAssistant, Content: "hello"})
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "hi"})
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "hi"}) // no dedup

	turns := sess.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, domain.RoleAssistant, turns[0].Role)
	assert.Equal(t, "hi", turns[1].Content)
	assert.Equal(t, turns[1], turns[2])
}

func TestSessionTurnsReturnsCopy(t *testing.T) {
	sess := newTestSession()
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "original"})

	turns := sess.Turns()
	turns[0].Content = "mutated"

	assert.Equal(t, "original", sess.Turns()[0].Content)
}

func TestSessionClear(t *testing.T) {
	sess := newTestSession()
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "hi"})

	sess.Clear()

	assert.Zero(t, sess.Len())
}

func TestSessionStateGate(t *testing.T) {
	sess := newTestSession()
	assert.Equal(t, domain.StateIdle, sess.State())

	require.True(t, sess.begin(domain.StateIdle, domain.StateSending))
	assert.Equal(t, domain.StateSending, sess.State())

	// A second begin while one call is outstanding must be rejected.
	assert.False(t, sess.begin(domain.StateIdle, domain.StateSending))
	assert.False(t, sess.begin(domain.StateIdle, domain.StateGeneratingProfile))

	sess.settle()
	assert.Equal(t, domain.StateIdle, sess.State())
	assert.True(t, sess.begin(domain.StateIdle, domain.StateGeneratingProfile))
}

func TestSessionSetLanguageDoesNotRewriteTurns(t *testing.T) {
	sess := newTestSession()
	sess.Append(domain.Turn{Role: domain.RoleUser, Content: "hello in english"})

	sess.SetLanguage("es")

	assert.Equal(t, "es", sess.Language())
	assert.Equal(t, "hello in english", sess.Turns()[0].Content)
}
