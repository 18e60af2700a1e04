package ui

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"koafrail/app"
	"koafrail/domain/clinical"
	"koafrail/domain/core"
	"koafrail/domain/risk"
)

// Server is the JSON API surface. It shares the assessment service with the
// HTML app but speaks machine-readable documents for programmatic callers.
type Server struct {
	router *gin.Engine
	assess *app.AssessService
}

// predictionResponse is the document returned for one scored patient
type predictionResponse struct {
	ID             string              `json:"id"`
	AssessedAt     string              `json:"assessed_at"`
	Probability    float64             `json:"probability"`
	RawScore       float64             `json:"raw_score"`
	Baseline       float64             `json:"baseline"`
	Clamped        bool                `json:"clamped"`
	Tier           risk.Tier           `json:"tier"`
	Recommendation risk.Recommendation `json:"recommendation"`
	Attributions   []risk.Attribution  `json:"attributions"`
	Model          modelRef            `json:"model"`
}

// modelRef identifies the artifact a prediction came from
type modelRef struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// NewServer creates a new API server instance
func NewServer(assess *app.AssessService) *Server {
	s := &Server{
		router: gin.Default(),
		assess: assess,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.POST("/api/v1/predictions", s.handlePredict)
	s.router.GET("/api/v1/schema", s.handleSchema)
	s.router.GET("/api/v1/model", s.handleModelCard)
	s.router.GET("/healthz", s.handleHealth)
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	log.Printf("Starting frailty assessment API on http://%s", addr)
	return s.router.Run(addr)
}

// handlePredict scores one patient from a JSON map of feature values.
// Malformed bodies come back 400; vectors that fail clinical validation come
// back 422 with one entry per offending field.
func (s *Server) handlePredict(c *gin.Context) {
	var features map[string]float64
	if err := c.ShouldBindJSON(&features); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object of numeric feature values"})
		return
	}

	result, err := s.assess.Assess(c.Request.Context(), app.AssessRequest{
		Vector: clinical.Vector(features),
		Source: core.SourceAPI,
	})
	if err != nil {
		var verrs clinical.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "details": verrs})
			return
		}
		log.Printf("[API] assessment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment failed"})
		return
	}

	pred := result.Prediction
	c.JSON(http.StatusOK, predictionResponse{
		ID:             result.ID.String(),
		AssessedAt:     result.AssessedAt.String(),
		Probability:    pred.Probability,
		RawScore:       pred.RawScore,
		Baseline:       pred.Baseline,
		Clamped:        pred.Clamped,
		Tier:           result.Tier,
		Recommendation: result.Recommendation,
		Attributions:   pred.Attributions,
		Model:          modelRef{Version: pred.ModelVersion, Hash: pred.ModelHash.String()},
	})
}

// handleSchema returns the clinical feature schema in form order
func (s *Server) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": clinical.Features()})
}

// handleModelCard returns the loaded artifact's card
func (s *Server) handleModelCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.assess.Model())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
