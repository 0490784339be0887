package handler

import (
	"quizquest/internal/domain"
	"quizquest/internal/middleware"
	"quizquest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardHandler handles leaderboard routes.
type LeaderboardHandler struct {
	ranker service.LeaderboardRanker
}

// NewLeaderboardHandler creates a new LeaderboardHandler instance.
func NewLeaderboardHandler(ranker service.LeaderboardRanker) *LeaderboardHandler {
	return &LeaderboardHandler{ranker: ranker}
}

func parseScope(c *fiber.Ctx) (domain.LeaderboardScope, string, error) {
	scopeName := c.Query("scope", string(domain.ScopeGlobal))
	scope, err := domain.ParseLeaderboardScope(scopeName)
	if err != nil {
		return "", "", err
	}
	return scope, c.Query("category_id"), nil
}

// TopN handles GET /api/leaderboard. The listing is public.
func (h *LeaderboardHandler) TopN(c *fiber.Ctx) error {
	scope, categoryID, err := parseScope(c)
	if err != nil {
		return err
	}

	pagination := domain.Pagination{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}

	response, err := h.ranker.TopN(c.Context(), scope, categoryID, pagination)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// MyRank handles GET /api/leaderboard/rank for the authenticated user.
func (h *LeaderboardHandler) MyRank(c *fiber.Ctx) error {
	scope, categoryID, err := parseScope(c)
	if err != nil {
		return err
	}

	userID := middleware.UserIDFromLocals(c)
	response, err := h.ranker.Rank(c.Context(), scope, categoryID, userID)
	if err != nil {
		return err
	}
	return c.JSON(response)
}
