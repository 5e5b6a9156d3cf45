package overview

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/epd/epd/internal/platform/auth"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/handover", auth.RequireRole(auth.ClinicalRoles...))
	g.GET("/overview", h.GetOverview)
	g.GET("/overview/export", h.ExportOverview)
}

// GetOverview returns the ranked overview. An unknown period falls back to
// the default window instead of failing.
func (h *Handler) GetOverview(c echo.Context) error {
	res, err := h.svc.Overview(c.Request().Context(), ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ExportOverview(c echo.Context) error {
	res, err := h.svc.Overview(c.Request().Context(), ParsePeriod(c.QueryParam("period")))
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, res); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build export")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", ExportFilename(res)))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
