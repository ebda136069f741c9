package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/karupanerura/aromat/internal/calc"
	"github.com/karupanerura/aromat/internal/types"
	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

const (
	evaluationsPath      = "/v1/evaluations"
	batchEvaluateMethod  = "batchEvaluate"
	maxRequestBodyLength = 1 << 20

	// Each open parenthesis costs a few parser frames; this keeps a single
	// line well inside the goroutine stack limit.
	maxExpressionLength = 1 << 12
)

type evaluateRequest struct {
	Expression string `json:"expression"`
	Tree       bool   `json:"tree"`
}

type batchEvaluateRequest struct {
	Expressions []string `json:"expressions"`
	Tree        bool     `json:"tree"`
}

type batchEvaluateResponse struct {
	Evaluations []*calc.Evaluation `json:"evaluations"`
}

type Options struct {
	Logger      zerolog.Logger
	Parallelism int

	// Audience enables Google ID token authentication when set.
	Audience string

	// validateToken replaces idtoken.Validate in tests.
	validateToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

type httpHandler struct {
	logger      zerolog.Logger
	parallelism int
}

func NewHTTPHandler(opts Options) http.Handler {
	var h http.Handler = &httpHandler{
		logger:      opts.Logger,
		parallelism: opts.Parallelism,
	}
	if opts.Audience != "" {
		validate := opts.validateToken
		if validate == nil {
			validate = idtoken.Validate
		}
		h = &authHandler{
			next:     h,
			logger:   opts.Logger,
			audience: opts.Audience,
			validate: validate,
		}
	}
	return h
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			h.logger.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("evaluation panicked")
			fault := &types.Error{Tag: types.SystemErrorTag, Err: fmt.Errorf("%v", v)}
			_ = resJSON(w, http.StatusInternalServerError, map[string]any{"error": fault.Exception()})
		}
	}()

	switch r.URL.Path {
	case evaluationsPath:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.evaluate(w, r)

	case evaluationsPath + ":" + batchEvaluateMethod:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.batchEvaluate(w, r)

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req evaluateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyLength)).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("failed to decode request body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if len(req.Expression) > maxExpressionLength {
		h.logger.Warn().Int("length", len(req.Expression)).Msg("expression too long")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ev := calc.Evaluate(req.Expression, req.Tree)
	h.logger.Info().Str("expression", req.Expression).Str("state", string(ev.State)).Msg("evaluated")
	if err := resJSON(w, http.StatusOK, ev); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (h *httpHandler) batchEvaluate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req batchEvaluateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyLength)).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("failed to decode request body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	for i, text := range req.Expressions {
		if len(text) > maxExpressionLength {
			h.logger.Warn().Int("index", i).Int("length", len(text)).Msg("expression too long")
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
	}

	evs, err := calc.EvaluateAll(r.Context(), req.Expressions, h.parallelism, req.Tree)
	if err != nil {
		h.logger.Warn().Err(err).Int("expressions", len(req.Expressions)).Msg("batch evaluation aborted")
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info().Int("expressions", len(req.Expressions)).Msg("batch evaluated")
	if err = resJSON(w, http.StatusOK, &batchEvaluateResponse{Evaluations: evs}); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

type authHandler struct {
	next     http.Handler
	logger   zerolog.Logger
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func (h *authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	payload, err := h.validate(r.Context(), token, h.audience)
	if err != nil {
		h.logger.Warn().Err(err).Msg("invalid ID token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.logger.Debug().Str("subject", payload.Subject).Msg("authenticated")
	h.next.ServeHTTP(w, r)
}

// resJSON answers 500 when v can not be encoded.
func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
