package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CostOfCapital/internal/loader"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/pipeline"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ds, err := loader.NewLoader(nil).Load("", "")
	require.NoError(t, err)
	schema, err := params.LoadSchema()
	require.NoError(t, err)
	return NewRouter(NewHandler(pipeline.NewRunner(ds), schema, params.DefaultYear, "mettr"))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetParameters(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/v1/parameters?year=2017", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Year       int            `json:"year"`
		Parameters map[string]any `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2017, body.Year)
	assert.Equal(t, 0.35, body.Parameters["CIT_rate"])

	w = do(r, http.MethodGet, "/v1/parameters", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0.21, body.Parameters["CIT_rate"])

	w = do(r, http.MethodGet, "/v1/parameters?year=1999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/v1/validate", `{"adjustment": {"ccc": {"CIT_rate": 0.25}}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/v1/validate", `{"adjustment": {"ccc": {"CIT_rate": 2, "nope": 1}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Errors []struct {
			Param  string `json:"param"`
			Reason string `json:"reason"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Errors, 2)

	w = do(r, http.MethodPost, "/v1/validate", `{"adjustment": {"ccc": {"E_c": 0, "inflation_rate": -0.03, "nominal_interest_rate": 0.01}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/v1/validate", `{"adjustment": {"ccc": 5}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/v1/validate", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRun(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/v1/run", `{"year": 2026, "adjustment": {"ccc": {"CIT_rate": 0.35}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		ID      string `json:"id"`
		Year    int    `json:"year"`
		Summary string `json:"summary"`
		Entity  struct {
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		} `json:"entity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, 2026, body.Year)
	assert.Contains(t, body.Summary, "Corporate")
	assert.Contains(t, body.Entity.Columns, "Change from Baseline (pp)")
	assert.NotEmpty(t, body.Entity.Rows)

	w = do(r, http.MethodPost, "/v1/run", `{"adjustment": {"ccc": {"CIT_rate": -3}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/v1/run", `{"year": 1990}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
