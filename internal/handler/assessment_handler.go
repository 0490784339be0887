package handler

import (
	"quizquest/internal/domain"
	"quizquest/internal/dto"
	"quizquest/internal/logger"
	"quizquest/internal/middleware"
	"quizquest/internal/service"
	"quizquest/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AssessmentHandler handles the test-attempt lifecycle routes.
type AssessmentHandler struct {
	sessions  service.SessionService
	validator *validation.Validator
}

// NewAssessmentHandler creates a new AssessmentHandler instance.
func NewAssessmentHandler(sessions service.SessionService) *AssessmentHandler {
	return &AssessmentHandler{
		sessions:  sessions,
		validator: validation.NewValidator(),
	}
}

// ListCategories handles GET /api/categories. Public.
func (h *AssessmentHandler) ListCategories(c *fiber.Ctx) error {
	response, err := h.sessions.ListCategories(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// StartTest handles POST /api/tests. Anonymous callers get an unowned
// attempt.
func (h *AssessmentHandler) StartTest(c *fiber.Ctx) error {
	var req dto.StartTestRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", "invalid json")}
	}
	if errs := h.validator.ValidateStartTestRequest(&req); len(errs) > 0 {
		return errs
	}

	userID := middleware.UserIDFromLocals(c)
	response, err := h.sessions.StartTest(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// SubmitTest handles POST /api/tests/:attemptId/submit.
func (h *AssessmentHandler) SubmitTest(c *fiber.Ctx) error {
	attemptID := c.Params("attemptId")
	if errs := h.validator.ValidateAttemptID(attemptID); len(errs) > 0 {
		return errs
	}

	var req dto.SubmitTestRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", "invalid json")}
	}
	if errs := h.validator.ValidateSubmitTestRequest(&req); len(errs) > 0 {
		return errs
	}

	userID := middleware.UserIDFromLocals(c)
	response, err := h.sessions.SubmitTest(c.Context(), userID, attemptID, &req)
	if err != nil {
		return err
	}

	logger.Get().Debug("Submission handled",
		zap.String("attempt_id", attemptID),
		zap.Int("score", response.Score))
	return c.JSON(response)
}

// GetResult handles GET /api/tests/:attemptId.
func (h *AssessmentHandler) GetResult(c *fiber.Ctx) error {
	attemptID := c.Params("attemptId")
	if errs := h.validator.ValidateAttemptID(attemptID); len(errs) > 0 {
		return errs
	}

	userID := middleware.UserIDFromLocals(c)
	response, err := h.sessions.GetResult(c.Context(), userID, attemptID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// GetHistory handles GET /api/tests.
func (h *AssessmentHandler) GetHistory(c *fiber.Ctx) error {
	userID := middleware.UserIDFromLocals(c)

	filters := domain.AttemptFilters{
		CategoryID:        c.Query("category_id"),
		StartDate:         c.Query("start_date"),
		EndDate:           c.Query("end_date"),
		IncludeUnfinished: c.QueryBool("include_unfinished"),
	}
	pagination := domain.Pagination{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}

	response, err := h.sessions.GetHistory(c.Context(), userID, filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}
