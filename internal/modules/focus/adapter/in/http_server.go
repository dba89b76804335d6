package in

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"tabfocus/internal/modules/focus/dto"
	focusin "tabfocus/internal/modules/focus/port/in"
	apperrors "tabfocus/internal/platform/errors"
)

// HTTPServer is the local bridge used by the browser extension to report tab
// events, and a JSON view of the control surface.
type HTTPServer struct {
	echo   *echo.Echo
	api    focusin.API
	logger *zap.Logger
}

// NewHTTPServer builds the router. metrics may be nil to omit /metrics.
func NewHTTPServer(api focusin.API, metrics http.Handler, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &HTTPServer{echo: e, api: api, logger: logger}
	s.registerRoutes(metrics)
	return s
}

func (s *HTTPServer) registerRoutes(metrics http.Handler) {
	s.echo.GET("/health", s.handleHealth)
	if metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/stats", s.handleStats)
	v1.DELETE("/stats", s.handleResetStats)
	v1.POST("/stats/export", s.handleExport)
	v1.PUT("/focus-mode", s.handleFocusMode)
	v1.PUT("/alert-time", s.handleAlertTime)
	v1.GET("/focus-list", s.handleFocusList)
	v1.PUT("/focus-list", s.handleSelectTabs)

	v1.GET("/tabs", s.handleListTabs)
	v1.PUT("/tabs/:id", s.handleUpsertTab)
	v1.DELETE("/tabs/:id", s.handleCloseTab)
	v1.POST("/tabs/:id/activate", s.handleActivate)
	v1.POST("/windows/focus", s.handleWindowFocus)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *HTTPServer) Start(addr string) error {
	s.logger.Info("starting http bridge", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http bridge")
	return s.echo.Shutdown(ctx)
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ActivateRequest struct {
	WindowID int `json:"window_id"`
}

type WindowFocusRequest struct {
	Focused  bool `json:"focused"`
	WindowID int  `json:"window_id"`
}

type FocusModeRequest struct {
	Enabled bool `json:"enabled"`
}

type AlertTimeRequest struct {
	Seconds int `json:"seconds"`
}

type SelectTabsRequest struct {
	TabIDs []int `json:"tab_ids"`
}

type ExportRequest struct {
	VaultPath string `json:"vault_path"`
}

func (s *HTTPServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *HTTPServer) handleStatus(c echo.Context) error {
	out, err := s.api.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleStats(c echo.Context) error {
	out, err := s.api.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleResetStats(c echo.Context) error {
	if err := s.api.ResetStats(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleExport(c echo.Context) error {
	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := s.api.ExportStats(c.Request().Context(), req.VaultPath)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleFocusMode(c echo.Context) error {
	var req FocusModeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.api.SetFocusMode(c.Request().Context(), req.Enabled); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleAlertTime(c echo.Context) error {
	var req AlertTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.api.SetAlertTime(c.Request().Context(), req.Seconds); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleFocusList(c echo.Context) error {
	out, err := s.api.FocusTargets(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleSelectTabs(c echo.Context) error {
	var req SelectTabsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	out, err := s.api.SelectTabs(c.Request().Context(), req.TabIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleListTabs(c echo.Context) error {
	out, err := s.api.ListTabs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *HTTPServer) handleUpsertTab(c echo.Context) error {
	id, err := tabID(c)
	if err != nil {
		return err
	}
	var req dto.TabInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ID = id
	if err := s.api.TabUpserted(c.Request().Context(), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleCloseTab(c echo.Context) error {
	id, err := tabID(c)
	if err != nil {
		return err
	}
	if err := s.api.TabClosed(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleActivate(c echo.Context) error {
	id, err := tabID(c)
	if err != nil {
		return err
	}
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.api.TabActivated(c.Request().Context(), id, req.WindowID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) handleWindowFocus(c echo.Context) error {
	var req WindowFocusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.api.ForegroundChanged(c.Request().Context(), req.Focused, req.WindowID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func tabID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "tab id must be a non-negative integer")
	}
	return id, nil
}

// errorHandler maps domain errors to status codes before echo's default handling.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			switch {
			case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInvalidAlertTime):
				he = echo.NewHTTPError(http.StatusBadRequest, err.Error())
			case errors.Is(err, apperrors.ErrTabNotFound), errors.Is(err, apperrors.ErrNotFound):
				he = echo.NewHTTPError(http.StatusNotFound, err.Error())
			default:
				he = echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
		e.DefaultHTTPErrorHandler(he, c)
	}
}
