package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func doRequest(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	h := NewHTTPHandler(Options{Logger: zerolog.Nop()})

	for _, tt := range []struct {
		name   string
		body   string
		state  string
		result any
		check  func(t *testing.T, res map[string]any)
	}{
		{
			name:   "succeeded",
			body:   `{"expression": "(1 + 2) * 3"}`,
			state:  "SUCCEEDED",
			result: float64(9),
		},
		{
			name:  "invalid",
			body:  `{"expression": "1 +"}`,
			state: "INVALID",
			check: func(t *testing.T, res map[string]any) {
				assert.Equal(t, []any{"ERROR: Unexpected token: <EndOfFileToken>, expected <NumberToken>"}, res["diagnostics"])
			},
		},
		{
			name:  "failed",
			body:  `{"expression": "1 / 0"}`,
			state: "FAILED",
			check: func(t *testing.T, res map[string]any) {
				exception, ok := res["error"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, []any{"ZeroDivisionError"}, exception["tags"])
			},
		},
		{
			name:  "out of range",
			body:  `{"expression": "` + strings.Repeat("9", 300) + ` * ` + strings.Repeat("9", 300) + `"}`,
			state: "FAILED",
			check: func(t *testing.T, res map[string]any) {
				exception, ok := res["error"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, []any{"OverflowError"}, exception["tags"])
			},
		},
		{
			name:   "with tree",
			body:   `{"expression": "7", "tree": true}`,
			state:  "SUCCEEDED",
			result: float64(7),
			check: func(t *testing.T, res map[string]any) {
				tree, ok := res["tree"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "NumberExpression", tree["kind"])
			},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, h, http.MethodPost, "/v1/evaluations", tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var res map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.state, res["state"])
			assert.Equal(t, tt.result, res["result"])
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestBatchEvaluate(t *testing.T) {
	t.Parallel()

	h := NewHTTPHandler(Options{Logger: zerolog.Nop(), Parallelism: 2})
	rec := doRequest(t, h, http.MethodPost, "/v1/evaluations:batchEvaluate", `{"expressions": ["1 + 1", "10 - 3 - 2", "(", "2 / 0"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Evaluations []struct {
			Expression string   `json:"expression"`
			State      string   `json:"state"`
			Result     *float64 `json:"result"`
		} `json:"evaluations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Evaluations, 4)

	assert.Equal(t, "1 + 1", res.Evaluations[0].Expression)
	assert.Equal(t, 2.0, *res.Evaluations[0].Result)
	assert.Equal(t, 5.0, *res.Evaluations[1].Result)
	assert.Equal(t, "INVALID", res.Evaluations[2].State)
	assert.Equal(t, "FAILED", res.Evaluations[3].State)
	assert.Nil(t, res.Evaluations[3].Result)
}

func TestRouting(t *testing.T) {
	t.Parallel()

	h := NewHTTPHandler(Options{Logger: zerolog.Nop()})
	for _, tt := range []struct {
		method string
		path   string
		body   string
		status int
	}{
		{method: http.MethodGet, path: "/v1/evaluations", status: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/v1/evaluations:batchEvaluate", status: http.StatusMethodNotAllowed},
		{method: http.MethodPost, path: "/v1/evaluations:cancel", body: "{}", status: http.StatusNotFound},
		{method: http.MethodPost, path: "/", body: "{}", status: http.StatusNotFound},
		{method: http.MethodPost, path: "/v1/evaluations", body: "not json", status: http.StatusBadRequest},
		{method: http.MethodPost, path: "/v1/evaluations:batchEvaluate", body: `{"expressions": 1}`, status: http.StatusBadRequest},
		{method: http.MethodPost, path: "/v1/evaluations", body: `{"expression": "` + deeplyNested(maxExpressionLength) + `"}`, status: http.StatusBadRequest},
		{method: http.MethodPost, path: "/v1/evaluations:batchEvaluate", body: `{"expressions": ["1", "` + deeplyNested(maxExpressionLength) + `"]}`, status: http.StatusBadRequest},
		{method: http.MethodPost, path: "/v1/evaluations", body: `{"expression": "` + deeplyNested(maxExpressionLength/2-1) + `"}`, status: http.StatusOK},
	} {
		rec := doRequest(t, h, tt.method, tt.path, tt.body, nil)
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func deeplyNested(depth int) string {
	return strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
}

func TestResJSONUnencodable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := resJSON(rec, http.StatusOK, map[string]float64{"result": math.Inf(1)})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	const audience = "https://aromat.example.com"
	h := NewHTTPHandler(Options{
		Logger:   zerolog.Nop(),
		Audience: audience,
		validateToken: func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
			if token == "good" && aud == audience {
				return &idtoken.Payload{Subject: "tester", Audience: aud}, nil
			}
			return nil, errors.New("idtoken: invalid token")
		},
	})

	body := `{"expression": "1"}`
	rec := doRequest(t, h, http.MethodPost, "/v1/evaluations", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/evaluations", body, http.Header{"Authorization": {"good"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/evaluations", body, http.Header{"Authorization": {"Bearer bad"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/evaluations", body, http.Header{"Authorization": {"Bearer good"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}
