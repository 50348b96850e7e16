package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rapport/internal/progression"
)

type createSessionRequest struct {
	SessionID string `json:"session_id"`
}

type messageRequest struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type flagRequest struct {
	Value progression.FlagValue `json:"value"`
}

type suggestionResponse struct {
	Stage  progression.Stage `json:"stage"`
	Format string            `json:"format"`
}

func (s *Server) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, err)
	}

	snap, err := s.svc.CreateSession(c.Request().Context(), req.SessionID, time.Now())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

func (s *Server) recordIncoming(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, err)
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	snap, err := s.svc.RecordIncoming(c.Request().Context(), c.Param("id"), req.Text, req.Timestamp)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) recordOutgoing(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, err)
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	if err := s.svc.RecordOutgoing(c.Request().Context(), c.Param("id"), req.Text, req.Timestamp); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setFlag(c echo.Context) error {
	var req flagRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, err)
	}

	snap, err := s.svc.SetFlag(c.Request().Context(), c.Param("id"), c.Param("name"), req.Value)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) getSnapshot(c echo.Context) error {
	snap, err := s.svc.Snapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) getHistory(c echo.Context) error {
	history, err := s.svc.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

func (s *Server) getSuggestion(c echo.Context) error {
	snap, err := s.svc.Snapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}

	format, err := s.catalog.Pick(snap)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, suggestionResponse{Stage: snap.Stage, Format: format})
}

func (s *Server) listSessions(c echo.Context) error {
	list, err := s.svc.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
