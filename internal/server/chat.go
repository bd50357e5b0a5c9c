package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medisearch/internal/research"
)

// ChatHandler exposes the answer pipeline over HTTP.
type ChatHandler struct {
	Service *research.Service
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Status    string `json:"status"`
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Register mounts the chat routes on g.
func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	reply, sid, err := h.Service.Answer(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process your request")
	}
	return c.JSON(http.StatusOK, chatResponse{Status: "success", Response: reply, SessionID: sid})
}
