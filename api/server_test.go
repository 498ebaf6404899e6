package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const compareJSON = `{"program": [
	{"op": "push", "args": [4]},
	{"op": "push", "args": [9]},
	{"op": "push", "args": [15]},
	{"op": "add", "args": [0, 0, 1]},
	{"op": "br", "cmp": "gt", "args": [0, 2, 5, 10]},
	{"op": "outs", "text": "Greater than 15"},
	{"op": "out", "args": [0]},
	{"op": "jmp", "args": [12]},
	{"op": "outs", "text": "unreachable"},
	{"op": "outs", "text": "unreachable"},
	{"op": "outs", "text": "Not greater"},
	{"op": "out", "args": [0]}
]}`

func newTestServer(t *testing.T, maxSteps int) *Server {
	s, err := NewServer(ServerConfig{
		Logger:   zap.NewNop(),
		MaxSteps: maxSteps,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestRun(t *testing.T) {
	s := newTestServer(t, 0)

	rec, body := do(t, s, http.MethodPost, "/run", compareJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Not greater", "13"}, body["output"])
	assert.Equal(t, float64(7), body["steps"])
	assert.NotContains(t, body, "fault")
}

func TestRun_Fault(t *testing.T) {
	s := newTestServer(t, 0)

	prog := `{"program": [
		{"op": "push", "args": [10]},
		{"op": "out", "args": [0]},
		{"op": "push", "args": [0]},
		{"op": "div", "args": [0, 0, 1]},
		{"op": "out", "args": [0]}
	]}`
	rec, body := do(t, s, http.MethodPost, "/run", prog)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []any{"10"}, body["output"])

	fault, ok := body["fault"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "division_by_zero", fault["kind"])
	assert.Equal(t, float64(3), fault["pc"])
	assert.Equal(t, float64(1), fault["index"])
}

func TestRun_StepLimit(t *testing.T) {
	s := newTestServer(t, 50)

	rec, body := do(t, s, http.MethodPost, "/run", `{"program": [{"op": "jmp", "args": [0]}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fault := body["fault"].(map[string]any)
	assert.Equal(t, "step_limit", fault["kind"])
	assert.Equal(t, float64(50), body["steps"])
}

func TestRun_BadProgram(t *testing.T) {
	s := newTestServer(t, 0)

	rec, body := do(t, s, http.MethodPost, "/run", `{"program": [{"op": "push", "args": [1, 2]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "step 0: push takes 1 args, got 2")
}

func TestPrograms(t *testing.T) {
	s := newTestServer(t, 0)

	rec, body := do(t, s, http.MethodPost, "/programs", compareJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	hash, ok := body["hash"].(string)
	require.True(t, ok)
	assert.Len(t, hash, 64)

	// same program, same hash
	_, again := do(t, s, http.MethodPost, "/programs", compareJSON)
	assert.Equal(t, hash, again["hash"])

	rec, body = do(t, s, http.MethodGet, "/programs/"+hash, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	dis := body["disassembly"].([]any)
	require.Len(t, dis, 12)
	assert.Equal(t, "0004  br gt r0, r2 -> 5 : 10", dis[4])
	assert.Len(t, body["program"], 12)

	rec, body = do(t, s, http.MethodPost, "/programs/"+hash+"/run", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Not greater", "13"}, body["output"])
}

func TestPrograms_Lookup(t *testing.T) {
	s := newTestServer(t, 0)

	rec, _ := do(t, s, http.MethodGet, "/programs/nothex", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := strings.Repeat("ab", 32)
	rec, _ = do(t, s, http.MethodGet, "/programs/"+missing, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, http.MethodPost, "/programs/"+missing+"/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_VMLogsAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewServer(ServerConfig{
		Logger:   zap.New(core),
		MaxSteps: 500,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec, _ := do(t, s, http.MethodPost, "/run", `{"program": [{"op": "jmp", "args": [0]}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Zero(t, logs.FilterMessage("instruction pointer").Len())
	assert.Equal(t, 1, logs.FilterMessage("fault").Len())
}

func TestServer_Close(t *testing.T) {
	s, err := NewServer(ServerConfig{Logger: zap.NewNop()})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	rec, body := do(t, s, http.MethodPost, "/programs", compareJSON)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "store closed")
}
