package handler

import (
	"quizquest/internal/dto"
	"quizquest/internal/middleware"
	"quizquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GamificationHandler handles achievement and progression routes. All of
// them require an authenticated user.
type GamificationHandler struct {
	achievements service.AchievementEvaluator
	profiles     service.ProfileService
}

// NewGamificationHandler creates a new GamificationHandler instance.
func NewGamificationHandler(achievements service.AchievementEvaluator, profiles service.ProfileService) *GamificationHandler {
	return &GamificationHandler{
		achievements: achievements,
		profiles:     profiles,
	}
}

// ListAchievements handles GET /api/achievements.
func (h *GamificationHandler) ListAchievements(c *fiber.Ctx) error {
	userID := middleware.UserIDFromLocals(c)

	views, err := h.achievements.ListForUser(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserAchievementsResponse{Achievements: views})
}

// EvaluateAchievements handles POST /api/achievements/evaluate. It re-runs
// the evaluator outside a submission, useful after out-of-band stat changes.
func (h *GamificationHandler) EvaluateAchievements(c *fiber.Ctx) error {
	userID := middleware.UserIDFromLocals(c)

	unlocked, err := h.achievements.Evaluate(c.Context(), userID)
	if err != nil {
		return err
	}
	h.achievements.NotifyUnlocks(c.Context(), userID, unlocked)

	response := dto.EvaluateAchievementsResponse{Unlocked: []dto.AchievementView{}}
	for _, def := range unlocked {
		response.Unlocked = append(response.Unlocked, dto.AchievementView{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			XPReward:    def.XPReward,
			TargetValue: def.Condition.Value,
			Unlocked:    true,
		})
	}
	return c.JSON(response)
}

// GetProgress handles GET /api/users/me/progress.
func (h *GamificationHandler) GetProgress(c *fiber.Ctx) error {
	userID := middleware.UserIDFromLocals(c)

	response, err := h.profiles.GetProgress(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}
