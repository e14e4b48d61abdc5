package consultation

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
	doctor := api.Group("/consultations", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/:visitId/claim", h.Claim)
	doctor.PUT("/:visitId/note", h.UpdateNote)
	doctor.POST("/:visitId/finish", h.Finish)
	doctor.GET("/:visitId/note", h.GetNote)
	doctor.GET("/mine", h.MyConsulting)
	doctor.GET("/attended", h.MyAttended)
}

func visitParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	return id, nil
}

func (h *Handler) Claim(c echo.Context) error {
	doctorID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	visitID, err := visitParam(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Claim(c.Request().Context(), doctorID, visitID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	doctorID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	visitID, err := visitParam(c)
	if err != nil {
		return err
	}
	var in NoteInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.UpdateNote(c.Request().Context(), doctorID, visitID, in)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) Finish(c echo.Context) error {
	doctorID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	visitID, err := visitParam(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Finish(c.Request().Context(), doctorID, visitID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) GetNote(c echo.Context) error {
	visitID, err := visitParam(c)
	if err != nil {
		return err
	}
	note, err := h.svc.GetNote(c.Request().Context(), visitID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) MyConsulting(c echo.Context) error {
	doctorID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.MyConsulting(c.Request().Context(), doctorID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MyAttended(c echo.Context) error {
	doctorID, err := auth.CallerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.MyAttended(c.Request().Context(), doctorID)
	if err != nil {
		return triage.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
