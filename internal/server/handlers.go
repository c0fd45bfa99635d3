package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/analyzer"
	"github.com/sozercan/qa-mole/internal/examples"
)

const errNoData = "No data provided"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Title:   apimodels.ServiceName,
		Backend: s.backend,
		About:   s.pages.about,
	}

	list, err := s.store.List(r.Context())
	if err != nil {
		// the page still works without the catalog
		slog.Warn("Failed to list examples", "error", err)
	}
	for _, ex := range list {
		data.Examples = append(data.Examples, exampleLink{ID: ex.ID, Title: ex.Title, Question: ex.Question})
	}

	var buf bytes.Buffer
	if err := s.pages.index.Execute(&buf, data); err != nil {
		slog.Error("Failed to render index", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req, err := decodePredictRequest(r.Body)
	if err != nil {
		slog.Debug("Invalid predict body", "error", err)
		writeError(w, http.StatusBadRequest, errNoData)
		return
	}

	resp, err := s.predictor.Predict(r.Context(), *req)
	switch {
	case errors.Is(err, analyzer.ErrContextRequired), errors.Is(err, analyzer.ErrQuestionRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, analyzer.ErrBackendUnavailable):
		writeError(w, http.StatusInternalServerError, analyzer.ErrBackendUnavailable.Error())
		return
	case err != nil:
		slog.Error("Prediction request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Debug("Prediction request completed", "confidence", resp.Confidence)
	writeJSON(w, http.StatusOK, resp)
}

// decodePredictRequest rejects bodies that are not a JSON object with at
// least one field: empty, malformed, null and {} alike.
func decodePredictRequest(body io.Reader) (*apimodels.PredictRequest, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("empty request body")
	}

	var req apimodels.PredictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := s.predictor.Loaded()
	status := apimodels.StatusHealthy
	if !loaded {
		status = apimodels.StatusStarting
	}
	writeJSON(w, http.StatusOK, apimodels.HealthResponse{
		Status:      status,
		ModelLoaded: loaded,
		Service:     apimodels.ServiceName,
	})
}

// pickExample resolves ?id= and ?random= against the store, falling back to
// the configured default example.
func (s *Server) pickExample(r *http.Request) (examples.Example, error) {
	ctx := r.Context()
	if id := r.URL.Query().Get("id"); id != "" {
		return s.store.Get(ctx, id)
	}
	if random, _ := strconv.ParseBool(r.URL.Query().Get("random")); random {
		return s.store.Random(ctx)
	}
	ex, err := s.store.Get(ctx, s.defaultID)
	if errors.Is(err, examples.ErrExampleNotFound) {
		return s.store.Random(ctx)
	}
	return ex, err
}

func (s *Server) handleLoadExample(w http.ResponseWriter, r *http.Request) {
	ex, err := s.pickExample(r)
	if err != nil {
		s.writeExampleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apimodels.ExampleResponse{
		Status:   apimodels.StatusSuccess,
		ID:       ex.ID,
		Context:  ex.Context,
		Question: ex.Question,
	})
}

func (s *Server) handleLegacyExample(w http.ResponseWriter, r *http.Request) {
	ex, err := s.pickExample(r)
	if err != nil {
		s.writeExampleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apimodels.LegacyExampleResponse{
		ExampleContext:  ex.Context,
		ExampleQuestion: ex.Question,
	})
}

func (s *Server) handleListExamples(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeExampleError(w, err)
		return
	}
	out := make([]apimodels.ExampleSummary, 0, len(list))
	for _, ex := range list {
		out = append(out, apimodels.ExampleSummary{ID: ex.ID, Title: ex.Title, Question: ex.Question})
	}
	writeJSON(w, http.StatusOK, out)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := s.store.RecentPredictions(r.Context(), limit)
	if err != nil {
		s.writeExampleError(w, err)
		return
	}
	out := make([]apimodels.HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, apimodels.HistoryEntry{
			ID:         rec.ID,
			Question:   rec.Question,
			Answer:     rec.Answer,
			Confidence: rec.Confidence,
			Backend:    rec.Backend,
			CreatedAt:  rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeExampleError(w http.ResponseWriter, err error) {
	if errors.Is(err, examples.ErrExampleNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Error("Example store request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apimodels.ErrorResponse{Error: message})
}
