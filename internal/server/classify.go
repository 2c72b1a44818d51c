package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Paintersrp/chatseek/internal/classify"
)

func (s *Server) classifyStatus(c echo.Context) error {
	registry := s.state.Registry()
	return c.JSON(http.StatusOK, map[string]any{
		"available": registry.Available(),
		"source":    registry.Source(),
	})
}

func (s *Server) classifyTests(c echo.Context) error {
	tests, err := s.state.Registry().Tests()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"tests": tests})
}

type analyzeRequest struct {
	Path      string `json:"file_path"`
	TestType  string `json:"test_type"`
	Reference string `json:"reference_text"`
}

type fileInfo struct {
	Path          string `json:"path"`
	Title         string `json:"title"`
	ContentLength int    `json:"content_length"`
}

type analyzeResponse struct {
	Success bool             `json:"success"`
	Result  *classify.Result `json:"result"`
	Error   string           `json:"error,omitempty"`
	File    fileInfo         `json:"file_info"`
}

func (s *Server) classifyAnalyze(c echo.Context) error {
	registry := s.state.Registry()
	if !registry.Available() {
		return echo.NewHTTPError(http.StatusBadRequest, classify.ErrUnavailable.Error())
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Path) == "" || strings.TrimSpace(req.TestType) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file_path or test_type")
	}

	engine, err := s.state.Archive.Engine()
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	doc, err := engine.Load(req.Path)
	if err != nil {
		return loadError(err)
	}

	resp := analyzeResponse{
		File: fileInfo{Path: doc.Path, Title: doc.Title, ContentLength: len(doc.Body)},
	}
	res, err := registry.Run(c.Request().Context(), req.TestType, doc.Body, req.Reference)
	switch {
	case errors.Is(err, classify.ErrUnknownTest), errors.Is(err, classify.ErrReferenceRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		resp.Error = err.Error()
	default:
		resp.Success = true
		resp.Result = &res
	}
	return c.JSON(http.StatusOK, resp)
}

type batchRequest struct {
	Paths     []string `json:"file_paths"`
	TestType  string   `json:"test_type"`
	Reference string   `json:"reference_text"`
}

type batchResponse struct {
	Success bool `json:"success"`
	classify.BatchReport
}

func (s *Server) classifyBatch(c echo.Context) error {
	registry := s.state.Registry()
	if !registry.Available() {
		return echo.NewHTTPError(http.StatusBadRequest, classify.ErrUnavailable.Error())
	}

	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if len(req.Paths) == 0 || strings.TrimSpace(req.TestType) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file_paths or test_type")
	}

	engine, err := s.state.Archive.Engine()
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}

	report, err := registry.Batch(c.Request().Context(), req.TestType, req.Paths, req.Reference, engine.Load)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, batchResponse{Success: true, BatchReport: report})
}
