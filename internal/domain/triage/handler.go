package triage

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	nurse := api.Group("/triage", auth.RequireRole(auth.RoleNurse))
	nurse.POST("", h.CreateVisit)
	nurse.GET("/recent", h.NurseRecent)
	nurse.PUT("/:id/revalue", h.Revalue)

	api.GET("/triage/cashier-queue", h.CashierPending, auth.RequireRole(auth.RoleCashier))

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/triage/doctor-queue", h.DoctorQueue)
	doctor.GET("/triage/waiting", h.DoctorWaiting)
	doctor.GET("/visits/:id/detail", h.GetDetail)
}

// HTTPError converts a service error into an echo error using the
// apperr taxonomy. The other domain handlers use it too.
func HTTPError(err error) error {
	return echo.NewHTTPError(apperr.HTTPStatus(err), err.Error())
}

func (h *Handler) CreateVisit(c echo.Context) error {
	nurseID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	var in CreateVisitInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := h.svc.CreateVisit(c.Request().Context(), nurseID, in)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *Handler) Revalue(c echo.Context) error {
	nurseID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var in RevalueInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := h.svc.Revalue(c.Request().Context(), nurseID, visitID, in)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetDetail(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), visitID)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) CashierPending(c echo.Context) error {
	items, err := h.svc.CashierPending(c.Request().Context())
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorQueue(c echo.Context) error {
	items, err := h.svc.DoctorQueue(c.Request().Context())
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorWaiting(c echo.Context) error {
	items, err := h.svc.DoctorWaiting(c.Request().Context())
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) NurseRecent(c echo.Context) error {
	nurseID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.NurseRecent(c.Request().Context(), nurseID)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
