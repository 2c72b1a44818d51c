package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Paintersrp/chatseek/internal/config"
)

type settingsResponse struct {
	Success    bool              `json:"success"`
	Workspace  string            `json:"workspace"`
	Workspaces []string          `json:"workspaces"`
	Settings   map[string]any    `json:"settings"`
	Status     string            `json:"status,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func (s *Server) settingsResponse() settingsResponse {
	cfg, ws := s.state.Current()
	return settingsResponse{
		Success:    true,
		Workspace:  cfg.CurrentWorkspace,
		Workspaces: cfg.WorkspaceNames(),
		Settings:   ws.Settings(),
		Status:     s.state.StatusLine(),
	}
}

func (s *Server) getSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.settingsResponse())
}

// updateSettings applies dotted keys from the body. Nothing is saved unless
// every value converts and the resulting workspace validates.
func (s *Server) updateSettings(c echo.Context) error {
	values := map[string]any{}
	if err := c.Bind(&values); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings payload")
	}
	if nested, ok := values["settings"].(map[string]any); ok {
		values = nested
	}

	_, ws := s.state.Current()
	updated := ws.Clone()
	problems := updated.Apply(values)
	for key, msg := range updated.Validate() {
		if _, seen := problems[key]; !seen {
			problems[key] = msg
		}
	}
	if len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, settingsResponse{Errors: problems})
	}

	if err := s.state.UpdateWorkspace(updated); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.settingsResponse())
}

// resetSettings restores defaults while keeping the archive directory.
func (s *Server) resetSettings(c echo.Context) error {
	_, ws := s.state.Current()
	if err := s.state.UpdateWorkspace(config.NewWorkspace(ws.ArchiveDir)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.settingsResponse())
}
