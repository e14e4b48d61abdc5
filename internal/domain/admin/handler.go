package admin

import (
	"net/http"

	"github.com/google/uuid"
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
	admin := api.Group("/admin/visits", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/:id", h.GetDetail)
	admin.PUT("/:id", h.UpdateDetail)
}

func (h *Handler) GetDetail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateDetail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var in UpdateDetailInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := h.svc.UpdateDetail(c.Request().Context(), id, in)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}
