package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/homecare-labs/intake-api/internal/adapters/http"
	"github.com/homecare-labs/intake-api/internal/adapters/llm"
	"github.com/homecare-labs/intake-api/internal/adapters/storage/memory"
	"github.com/homecare-labs/intake-api/internal/app/intake"
	"github.com/homecare-labs/intake-api/internal/app/review"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	intakeSvc := intake.NewService(llm.NewMockChat(), store, store, "en")
	reviewSvc := review.NewService(store)

	return httpadapter.NewServer(intakeSvc, reviewSvc, "")
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body=%s", w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLanguagesCatalog(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/languages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	langs := decode[[]map[string]string](t, w)
	codes := make(map[string]string)
	for _, l := range langs {
		codes[l["code"]] = l["name"]
	}
	assert.Equal(t, "English", codes["en"])
}

func TestStartSessionRequiresUserID(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/sessions", map[string]string{"name": "Alex"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/sessions/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendTurnRequiresText(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/sessions/whatever/turns", map[string]string{"text": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type sessionEnvelope struct {
	Session struct {
		ID       string `json:"id"`
		UserID   string `json:"user_id"`
		Language string `json:"language"`
		State    string `json:"state"`
	} `json:"session"`
	Greeting *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"greeting"`
}

func TestFullIntakeFlow(t *testing.T) {
	srv := newTestServer(t)

	// Start a session.
	w := doJSON(t, srv, http.MethodPost, "/sessions", map[string]string{
		"user_id": "user-1", "name": "Alex", "email": "alex@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[sessionEnvelope](t, w)
	require.NotEmpty(t, created.Session.ID)
	require.NotNil(t, created.Greeting)
	assert.Equal(t, "assistant", created.Greeting.Role)
	assert.Contains(t, created.Greeting.Content, "Emma")

	base := "/sessions/" + created.Session.ID

	// One conversational exchange.
	w = doJSON(t, srv, http.MethodPost, base+"/turns", map[string]string{
		"text": "My mother is 82 and needs help bathing.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	exchange := decode[map[string]map[string]string](t, w)
	assert.Equal(t, "user", exchange["user_turn"]["role"])
	assert.Equal(t, "assistant", exchange["assistant_turn"]["role"])

	// Switch languages: a synthetic user turn announces the change.
	w = doJSON(t, srv, http.MethodPost, base+"/language", map[string]string{"language": "es"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	exchange = decode[map[string]map[string]string](t, w)
	assert.Contains(t, exchange["user_turn"]["content"], "Spanish")

	// The transcript now holds greeting + 2 exchanges.
	w = doJSON(t, srv, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	transcript := decode[struct {
		Turns []struct {
			Role string `json:"role"`
		} `json:"turns"`
	}](t, w)
	assert.Len(t, transcript.Turns, 5)

	// Finish: the mock model emits a valid fenced profile.
	w = doJSON(t, srv, http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	finish := decode[map[string]any](t, w)
	assert.Equal(t, true, finish["completed"])

	// The session was handed off and no longer exists.
	w = doJSON(t, srv, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The interview landed in the review queue.
	w = doJSON(t, srv, http.MethodGet, "/admin/interviews/?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]map[string]any](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, "user-1", pending[0]["user_id"])

	w = doJSON(t, srv, http.MethodGet, "/admin/interviews/user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	interview := decode[map[string]any](t, w)
	assert.Equal(t, true, interview["needs_review"])
	assert.Equal(t, false, interview["review_completed"])

	// A reviewer completes the review and the queue drains.
	w = doJSON(t, srv, http.MethodPost, "/admin/interviews/user-1/review", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/admin/interviews/?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending = decode[[]map[string]any](t, w)
	assert.Empty(t, pending)
}

func TestFinishUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/sessions/nope/finish", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewUnknownInterview(t *testing.T) {
	srv := newTestServer(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/admin/interviews/ghost"},
		{http.MethodPost, "/admin/interviews/ghost/review"},
	} {
		t.Run(fmt.Sprintf("%s %s", req.method, req.path), func(t *testing.T) {
			w := doJSON(t, srv, req.method, req.path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}
