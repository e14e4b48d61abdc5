package payment

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
	cashier := api.Group("/payments", auth.RequireRole(auth.RoleCashier))
	cashier.POST("/:visitId/pay", h.MarkPaid)
	cashier.GET("/:visitId", h.GetByVisit)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	cashierID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var in MarkPaidInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := h.svc.MarkPaid(c.Request().Context(), cashierID, visitID, in)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetByVisit(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	p, err := h.svc.GetByVisit(c.Request().Context(), visitID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}
