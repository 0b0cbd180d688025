package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/investflow/internal/app"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	tcommon "github.com/bobmcallan/investflow/tests/common"
)

// testEnv is a full middleware stack over in-memory stores and fakes.
type testEnv struct {
	srv     *Server
	app     *app.App
	storage *tcommon.MockStorageManager
	feed    *tcommon.MockPositionFeed
	gemini  *tcommon.MockGeminiClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithGemini(t, &tcommon.MockGeminiClient{Response: "## Risk\n\nModerate concentration."})
}

// newTestEnvWithGemini builds an env; a nil gemini leaves insights unconfigured.
func newTestEnvWithGemini(t *testing.T, gemini *tcommon.MockGeminiClient) *testEnv {
	t.Helper()
	storage := tcommon.NewMockStorageManager()
	feed := &tcommon.MockPositionFeed{}

	deps := app.Deps{Storage: storage, PositionFeed: feed}
	if gemini != nil {
		deps.GeminiClient = gemini
	}

	cfg := common.NewDefaultConfig()
	a := app.New(cfg, common.NewSilentLogger(), deps)
	t.Cleanup(a.Close)

	return &testEnv{
		srv:     NewServer(a),
		app:     a,
		storage: storage,
		feed:    feed,
		gemini:  gemini,
	}
}

// do sends a request through the full handler. body, when not nil, is
// JSON encoded; a string body is sent verbatim.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		buf = jsonBody(t, b)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token and user ID.
func (e *testEnv) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[interfaces.AuthResult](t, rec)
	return res.Token, res.User.ID
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return v
}
