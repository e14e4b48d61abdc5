package reports

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/reports", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/attended", h.ListAttended)
}

func (h *Handler) ListAttended(c echo.Context) error {
	var q Query
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.ListAttended(c.Request().Context(), q)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}
