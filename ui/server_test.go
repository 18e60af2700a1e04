package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"koafrail/app"
	"koafrail/domain/clinical"
	"koafrail/internal/testkit"
	"koafrail/ports"
)

func newTestServer(t *testing.T) (*Server, *testkit.InMemoryAssessmentStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kit := testkit.NewTestKit()
	scorer, err := kit.Scorer()
	if err != nil {
		t.Fatalf("Scorer failed: %v", err)
	}
	store := kit.AssessmentStore()
	return NewServer(app.NewAssessService(scorer, store)), store
}

func postPrediction(s *Server, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predictions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestPredictionsEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	kit := testkit.NewTestKit()
	payload, err := json.Marshal(kit.Vector(map[string]float64{
		"age":           85,
		"FTSST":         1,
		"Complications": 2,
	}))
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	w := postPrediction(s, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/predictions returned %d: %s", w.Code, w.Body.String())
	}

	var resp predictionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" || resp.AssessedAt == "" {
		t.Error("response missing assessment identity")
	}
	if resp.Probability <= 0 || resp.Probability >= 1 {
		t.Errorf("probability %g outside (0, 1)", resp.Probability)
	}
	if resp.Tier == "" {
		t.Error("response missing tier")
	}
	if resp.Recommendation.Headline == "" {
		t.Error("response missing recommendation")
	}
	if len(resp.Attributions) != clinical.Count() {
		t.Errorf("expected %d attributions, got %d", clinical.Count(), len(resp.Attributions))
	}
	var sum float64
	for _, a := range resp.Attributions {
		sum += a.Contribution
	}
	if math.Abs(resp.Baseline+sum-resp.RawScore) > 1e-9 {
		t.Errorf("decomposition broken: baseline %g + sum %g != raw %g", resp.Baseline, sum, resp.RawScore)
	}
	if resp.Model.Hash == "" {
		t.Error("response missing model hash")
	}

	if store.Len() != 1 {
		t.Fatalf("expected 1 audit record, got %d", store.Len())
	}
	recs, _ := store.ListRecent(context.Background(), 1)
	if recs[0].Source != "api" {
		t.Errorf("audit source = %q, want api", recs[0].Source)
	}
}

func TestPredictionsValidation(t *testing.T) {
	s, store := newTestServer(t)

	kit := testkit.NewTestKit()
	vector := kit.Vector(map[string]float64{"age": 150})
	delete(vector, "bmi")
	payload, _ := json.Marshal(vector)

	w := postPrediction(s, payload)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid vector returned %d, want 422", w.Code)
	}

	var resp struct {
		Error   string                `json:"error"`
		Details []clinical.FieldError `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "validation failed" {
		t.Errorf("error = %q", resp.Error)
	}
	keys := make(map[string]string, len(resp.Details))
	for _, d := range resp.Details {
		keys[d.Key] = d.Message
	}
	if _, ok := keys["age"]; !ok {
		t.Error("details missing the age range failure")
	}
	if msg := keys["bmi"]; msg != "is required" {
		t.Errorf("bmi detail = %q, want required", msg)
	}

	if store.Len() != 0 {
		t.Errorf("invalid input must not be audited, got %d records", store.Len())
	}
}

func TestPredictionsMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	for _, body := range []string{`not json`, `{"age": "old"}`, `[1, 2, 3]`} {
		w := postPrediction(s, []byte(body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q returned %d, want 400", body, w.Code)
		}
	}
}

func TestSchemaEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/schema returned %d", w.Code)
	}

	var resp struct {
		Features []clinical.Feature `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Features) != clinical.Count() {
		t.Fatalf("expected %d features, got %d", clinical.Count(), len(resp.Features))
	}
	if resp.Features[0].Key != "age" {
		t.Errorf("schema order wrong, first key %q", resp.Features[0].Key)
	}
}

func TestModelEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/model returned %d", w.Code)
	}

	var card ports.ModelCard
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode model card: %v", err)
	}
	if card.Version == "" || card.Hash == "" {
		t.Error("model card missing identity")
	}
	if len(card.Terms) != clinical.Count() {
		t.Errorf("expected %d terms, got %d", clinical.Count(), len(card.Terms))
	}
}

func TestAPIHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned %d", w.Code)
	}
}
