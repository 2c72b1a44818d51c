package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Paintersrp/chatseek/internal/export"
	"github.com/Paintersrp/chatseek/internal/search"
	"github.com/Paintersrp/chatseek/internal/services/archive"
)

type searchResponse struct {
	Success bool            `json:"success"`
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Partial bool            `json:"partial"`
	Elapsed string          `json:"search_time"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) search(c echo.Context) error {
	values := map[string]any{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search request")
	}

	_, ws := s.state.Current()
	q := archive.ParseQuery(values, ws)

	report, err := s.state.Archive.Search(c.Request().Context(), q)
	if err != nil {
		s.log.Printf("search failed: %v", err)
		return c.JSON(statusFor(err), searchResponse{
			Results: []search.Result{},
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, searchResponse{
		Success: true,
		Results: report.Results,
		Count:   len(report.Results),
		Total:   report.Stats.Matched,
		Partial: report.Partial,
		Elapsed: fmt.Sprintf("%.3fs", report.Elapsed.Seconds()),
	})
}

func (s *Server) export(c echo.Context) error {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params := c.QueryParams()
	values := make(map[string]any, len(params))
	for key, vals := range params {
		if len(vals) > 0 {
			values[key] = strings.Join(vals, ",")
		}
	}

	_, ws := s.state.Current()
	q := archive.ParseQuery(values, ws)
	report, err := s.state.Archive.Search(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), fmt.Sprintf("export error: %v", err))
	}

	pathType := c.QueryParam("pathType")
	if pathType == "" {
		pathType = c.QueryParam("path_type")
	}
	if pathType == "" {
		pathType = ws.Export.PathType
	}

	now := time.Now()
	opts := export.Options{
		Format:   format,
		PathType: export.ParsePathType(pathType),
		Root:     ws.ArchiveDir,
		Query:    q,
		Now:      now,
	}
	data, err := export.Encode(report.Results, opts)
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(format, now)))
	return c.Blob(http.StatusOK, format.ContentType()+"; charset=utf-8", data)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, archive.ErrUnavailable), errors.Is(err, search.ErrRootMissing),
		errors.Is(err, search.ErrRootNotDir), errors.Is(err, archive.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
