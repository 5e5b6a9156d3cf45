package handover

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/epd/epd/internal/domain/overview"
	"github.com/epd/epd/internal/platform/auth"
	"github.com/epd/epd/internal/platform/llm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/handover", auth.RequireRole(auth.ClinicalRoles...))
	g.POST("/patients/:id/summary", h.CreateSummary)
}

func (h *Handler) CreateSummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))

	s, err := h.svc.Summarize(c.Request().Context(), id, overview.ParsePeriod(c.QueryParam("period")), refresh)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, s)
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, llm.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "summary generation is not configured")
	case errors.Is(err, ErrGeneration):
		return echo.NewHTTPError(http.StatusBadGateway, "summary generation failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
