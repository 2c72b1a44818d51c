package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Paintersrp/chatseek/internal/cache"
	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/state"
)

// Server exposes the archive over HTTP.
type Server struct {
	state *state.State
	echo  *echo.Echo
	log   *log.Logger
	html  *cache.LRU[renderKey, string]
}

const htmlCacheSize = 128

// New builds the router for st. The server reads the active workspace from
// st on every request, so config reloads take effect without a restart.
func New(st *state.State) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	_, ws := st.Current()
	e.Debug = ws.Server.Debug

	s := &Server{
		state: st,
		echo:  e,
		log:   log.New(logger.Writer(), "[HTTP] ", log.LstdFlags),
		html:  cache.New[renderKey, string](htmlCacheSize),
	}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(s.state.Metrics.Handler()))

	e.POST("/search", s.search)
	e.GET("/export/:format", s.export)

	api := e.Group("/api")
	api.GET("/file-tree", s.fileTree)
	api.GET("/file-content/*", s.fileContent)
	api.GET("/settings", s.getSettings)
	api.POST("/settings", s.updateSettings)
	api.POST("/settings/reset", s.resetSettings)
	api.POST("/validate-archive-path", s.validateArchivePath)

	classify := api.Group("/classify")
	classify.GET("/status", s.classifyStatus)
	classify.GET("/tests", s.classifyTests)
	classify.POST("/analyze", s.classifyAnalyze)
	classify.POST("/batch", s.classifyBatch)
}

// handleError renders every error as {"error": msg} and logs it once.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	s.log.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"error": msg})
}

// ServeHTTP lets the server be mounted or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Printf("listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
