package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/agent"
)

// Handler adapts HTTP requests onto the agent orchestrator.
type Handler struct {
	orch *agent.Orchestrator
	log  *zap.Logger
}

func NewHandler(orch *agent.Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{orch: orch, log: logger.Named("handler")}
}

// Run starts a fresh agent run for a job description.
func (h *Handler) Run(c *gin.Context) {
	var req schemas.AgentRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.execute(c, req)
}

// Continue resumes a blocked run with the user's answers. It is the same
// run contract as Run but requires user_inputs to be present.
func (h *Handler) Continue(c *gin.Context) {
	var req schemas.AgentRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.UserInputs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_inputs is required to continue a run"})
		return
	}
	h.execute(c, req)
}

func (h *Handler) execute(c *gin.Context, req schemas.AgentRunRequest) {
	goal := req.Goal
	if goal == "" {
		goal = "apply to job"
	}

	result, err := h.orch.Run(c.Request.Context(), agent.RunInput{
		UserID:         req.UserID,
		Goal:           goal,
		JobDescription: req.JobDescription,
		PageURL:        req.PageURL,
		PageHTML:       req.PageHTML,
		Constraints:    req.Constraints,
		UserInputs:     req.UserInputs,
	})
	if err != nil {
		h.log.Error("agent run failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "agent run failed"})
		return
	}

	c.JSON(http.StatusOK, schemas.AgentRunResponse{
		UserID:          req.UserID,
		JobDescription:  req.JobDescription,
		Status:          result.Status,
		Steps:           result.Steps,
		ProposedAnswers: result.ProposedAnswers,
		MissingFields:   result.Meta.MissingFields,
		NextQuestions:   result.Meta.NextQuestions,
	})
}
