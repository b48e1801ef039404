package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler exposes the generation pipeline over HTTP.
type QuizHandler struct {
	quizService service.QuizService
	jobService  service.JobService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService service.QuizService, jobService service.JobService) *QuizHandler {
	return &QuizHandler{quizService: quizService, jobService: jobService}
}

// RegisterRoutes mounts the API routes on the router.
func (h *QuizHandler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api")
	api.Post("/quizzes", h.GenerateQuiz)
	api.Post("/jobs", h.SubmitJob)
	api.Get("/jobs/:id", h.GetJob)
	api.Get("/runs", h.ListRuns)
	api.Get("/runs/:id", h.GetRun)
}

// GenerateQuiz runs one generation synchronously and returns the result.
// A run that failed inside the strategy still returns 200 with status
// "failed"; transport-level failures go through the error handler.
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	response, err := h.quizService.GenerateQuiz(c.Context(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// SubmitJob registers an asynchronous generation job and returns its ID.
func (h *QuizHandler) SubmitJob(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	jobID, err := h.jobService.Submit(c.Context(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"jobId":  jobID,
		"status": dto.JobStatusPending,
	})
}

// GetJob returns the current status of a job, with the result once done.
func (h *QuizHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return domain.NewInvalidInputError("job ID is required")
	}

	response, err := h.jobService.Get(c.Context(), jobID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// ListRuns returns the most recent archived generation runs.
func (h *QuizHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	runs, err := h.quizService.ListRuns(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"runs": runs})
}

// GetRun returns one archived generation run by ID.
func (h *QuizHandler) GetRun(c *fiber.Ctx) error {
	runID := c.Params("id")
	if runID == "" {
		return domain.NewInvalidInputError("run ID is required")
	}

	run, err := h.quizService.GetRun(c.Context(), runID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(run)
}
