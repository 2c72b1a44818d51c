package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Paintersrp/chatseek/internal/config"
	"github.com/Paintersrp/chatseek/internal/render"
	"github.com/Paintersrp/chatseek/internal/search"
	"github.com/Paintersrp/chatseek/internal/services/archive"
	"github.com/Paintersrp/chatseek/internal/tree"
)

const validateTimeout = 10 * time.Second

func (s *Server) fileTree(c echo.Context) error {
	_, ws := s.state.Current()
	if ws.ArchiveDir == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, archive.ErrUnavailable.Error())
	}

	root, err := tree.Build(ws.ArchiveDir, tree.Options{
		MaxDepth:   ws.Tree.MaxDepth,
		ShowHidden: ws.Tree.ShowHidden,
		Extensions: ws.Search.Extensions,
	})
	if err != nil {
		return err
	}

	children := root.Children
	if children == nil {
		children = []*tree.Node{}
	}
	return c.JSON(http.StatusOK, children)
}

type fileContentResponse struct {
	Success      bool            `json:"success"`
	Path         string          `json:"file_path"`
	Title        string          `json:"title"`
	RawContent   string          `json:"raw_content"`
	HTMLContent  string          `json:"html_content"`
	Metadata     search.Metadata `json:"metadata"`
	Size         int64           `json:"file_size"`
	LastModified time.Time       `json:"last_modified"`
}

func (s *Server) fileContent(c echo.Context) error {
	rel, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid path")
	}

	engine, err := s.state.Archive.Engine()
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}

	doc, err := engine.Load(rel)
	if err != nil {
		return loadError(err)
	}

	raw, err := os.ReadFile(filepath.Join(engine.Root(), filepath.FromSlash(doc.Path)))
	if err != nil {
		return loadError(err)
	}
	html, err := s.renderHTML(engine.Root(), doc)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fileContentResponse{
		Success:      true,
		Path:         doc.Path,
		Title:        doc.Title,
		RawContent:   string(raw),
		HTMLContent:  html,
		Metadata:     doc.Metadata,
		Size:         doc.Size,
		LastModified: doc.ModifiedAt,
	})
}

// renderKey identifies one version of a file. A changed size or
// modification time misses the cache.
type renderKey struct {
	root    string
	path    string
	size    int64
	modTime int64
}

func (s *Server) renderHTML(root string, doc search.Document) (string, error) {
	key := renderKey{root: root, path: doc.Path, size: doc.Size, modTime: doc.ModifiedAt.UnixNano()}
	if html, ok := s.html.Get(key); ok {
		return html, nil
	}
	html, err := render.HTML([]byte(doc.Body))
	if err != nil {
		return "", err
	}
	s.html.Put(key, html)
	return html, nil
}

// loadError maps document load failures onto HTTP errors.
func loadError(err error) error {
	switch {
	case errors.Is(err, search.ErrOutsideRoot):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, search.ErrNotIndexable):
		return echo.NewHTTPError(http.StatusBadRequest, "only indexable files are supported")
	case errors.Is(err, fs.ErrNotExist):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

type validateRequest struct {
	Path string `json:"path"`
}

type validateResponse struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message"`
	FileCount int    `json:"file_count"`
}

func (s *Server) validateArchivePath(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	if err := config.ValidateArchiveDir(req.Path); err != nil {
		return c.JSON(http.StatusOK, validateResponse{Message: err.Error()})
	}

	_, ws := s.state.Current()
	probe := ws.Clone()
	probe.ArchiveDir = req.Path
	engine, err := search.NewEngine(archive.EngineConfig(probe))
	if err != nil {
		return c.JSON(http.StatusOK, validateResponse{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), validateTimeout)
	defer cancel()
	files, err := engine.Files(ctx)
	if err != nil {
		return c.JSON(http.StatusOK, validateResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, validateResponse{
		Valid:     true,
		Message:   "archive path is valid",
		FileCount: len(files),
	})
}
