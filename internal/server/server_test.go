package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/chatseek/internal/classify"
	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/internal/state/statetest"
)

func newTestArchive(t *testing.T) string {
	t.Helper()
	return statetest.WriteArchive(t, map[string]string{
		"chats/alpha.md": "---\ntitle: Alpha Chat\nconversation_id: c-1\n---\n# Alpha\n\nneedle needle needle\n",
		"chats/beta.md":  "---\ntitle: Beta Chat\n---\nneedle once\n",
		"notes/gamma.md": "nothing to see\n",
		"notes/skip.txt": "needle\n",
	})
}

func newTestServer(t *testing.T, archiveDir string) (*Server, *state.State) {
	t.Helper()
	st := statetest.New(t, archiveDir)
	return New(st), st
}

func doJSON(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	doJSON(t, s, http.MethodPost, "/search", `{"terms":"needle"}`)
	rec = doJSON(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatseek_searches_total")
}

func TestSearchRanksResults(t *testing.T) {
	s, _ := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodPost, "/search", `{"terms":"needle","searchIn":"content"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Partial)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "chats/alpha.md", resp.Results[0].Path)
	assert.Equal(t, 3, resp.Results[0].Matches)
	assert.Equal(t, "c-1", resp.Results[0].ConversationID)
	assert.Equal(t, "chats/beta.md", resp.Results[1].Path)
}

func TestSearchFolderFilterAndMaxResults(t *testing.T) {
	s, st := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodPost, "/search", `{"terms":"needle","excluded_folders":["chats"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])

	_, ws := st.Current()
	updated := ws.Clone()
	updated.Search.MaxResults = 1
	require.NoError(t, st.UpdateWorkspace(updated))

	rec = doJSON(t, s, http.MethodPost, "/search", `{"terms":"needle"}`)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 2, body["total"])
}

func TestSearchWithoutArchive(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	rec := doJSON(t, s, http.MethodPost, "/search", `{"terms":"needle"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{}, body["results"])
}

func TestExport(t *testing.T) {
	archiveDir := newTestArchive(t)
	s, _ := newTestServer(t, archiveDir)

	rec := doJSON(t, s, http.MethodGet, "/export/csv-paths?terms=needle&pathType=full", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "chatseek_search_paths_")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "File Path", lines[0])
	assert.Equal(t, filepath.Join(archiveDir, "chats", "alpha.md"), lines[1])

	rec = doJSON(t, s, http.MethodGet, "/export/json?terms=needle&mode=any", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["total_results"])
	query := body["search_query"].(map[string]any)
	assert.Equal(t, "needle", query["terms"])
	assert.Equal(t, "ANY", query["mode"])

	rec = doJSON(t, s, http.MethodGet, "/export/xml?terms=needle", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unknown export format")
}

func TestFileTree(t *testing.T) {
	s, _ := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodGet, "/api/file-tree", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "chats", nodes[0]["name"])
	assert.Equal(t, "folder", nodes[0]["type"])
	notes := nodes[1]["children"].([]any)
	require.Len(t, notes, 1, "non-indexable files are not listed")
}

func TestFileContent(t *testing.T) {
	s, _ := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodGet, "/api/file-content/chats/alpha.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Alpha Chat", body["title"])
	assert.Contains(t, body["html_content"], "<h1")
	assert.Contains(t, body["raw_content"], "conversation_id: c-1")
	assert.Equal(t, "c-1", body["metadata"].(map[string]any)["conversation_id"])

	cases := map[string]int{
		"/api/file-content/chats/missing.md": http.StatusNotFound,
		"/api/file-content/notes/skip.txt":   http.StatusBadRequest,
		"/api/file-content/..%2F..%2Fetc.md": http.StatusForbidden,
	}
	for target, code := range cases {
		rec := doJSON(t, s, http.MethodGet, target, "")
		assert.Equal(t, code, rec.Code, target)
		assert.NotEmpty(t, decode(t, rec)["error"], target)
	}
}

func TestFileContentRerendersChangedFiles(t *testing.T) {
	dir := newTestArchive(t)
	s, _ := newTestServer(t, dir)

	rec := doJSON(t, s, http.MethodGet, "/api/file-content/chats/beta.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["html_content"], "needle once")
	assert.Equal(t, 1, s.html.Len())

	statetest.WriteFile(t, filepath.Join(dir, "chats", "beta.md"), "---\ntitle: Beta Chat\n---\nrewritten with a longer body\n")
	rec = doJSON(t, s, http.MethodGet, "/api/file-content/chats/beta.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["html_content"], "rewritten with a longer body")
}

func TestSettingsRoundTrip(t *testing.T) {
	s, st := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "default", body["workspace"])
	assert.EqualValues(t, 100, body["settings"].(map[string]any)["search.max_results"])

	rec = doJSON(t, s, http.MethodPost, "/api/settings", `{"search.max_results": 0, "server.port": "abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problems := decode(t, rec)["errors"].(map[string]any)
	assert.Contains(t, problems, "search.max_results")
	assert.Contains(t, problems, "server.port")
	_, ws := st.Current()
	assert.Equal(t, 100, ws.Search.MaxResults, "invalid updates are not applied")

	rec = doJSON(t, s, http.MethodPost, "/api/settings", `{"settings": {"search.max_results": 5, "tree.max_depth": "2"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, ws = st.Current()
	assert.Equal(t, 5, ws.Search.MaxResults)
	assert.Equal(t, 2, ws.Tree.MaxDepth)

	rec = doJSON(t, s, http.MethodPost, "/api/settings/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, ws = st.Current()
	assert.Equal(t, 100, ws.Search.MaxResults)
}

func TestValidateArchivePath(t *testing.T) {
	archiveDir := newTestArchive(t)
	s, _ := newTestServer(t, archiveDir)

	rec := doJSON(t, s, http.MethodPost, "/api/validate-archive-path", `{"path": "`+archiveDir+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.EqualValues(t, 3, body["file_count"])

	rec = doJSON(t, s, http.MethodPost, "/api/validate-archive-path", `{"path": "`+filepath.Join(archiveDir, "nope")+`"}`)
	body = decode(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "archive path does not exist", body["message"])
}

type scoreByLength struct{}

func (scoreByLength) Classify(_ context.Context, text, _ string) (classify.Result, error) {
	if strings.Contains(text, "once") {
		return classify.Result{}, errors.New("plugin crashed")
	}
	return classify.Result{Score: float64(len(text))}, nil
}

func TestClassifyEndpoints(t *testing.T) {
	s, st := newTestServer(t, newTestArchive(t))

	rec := doJSON(t, s, http.MethodGet, "/api/classify/status", "")
	assert.Equal(t, false, decode(t, rec)["available"])
	rec = doJSON(t, s, http.MethodPost, "/api/classify/analyze", `{"file_path":"chats/alpha.md","test_type":"length"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	registry := classify.NewRegistry("fake")
	registry.Register(classify.Test{ID: "length", Name: "Length"}, scoreByLength{})
	registry.Register(classify.Test{ID: "compare", Name: "Compare", RequiresReference: true}, scoreByLength{})
	st.Classifiers = registry

	rec = doJSON(t, s, http.MethodGet, "/api/classify/tests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["tests"], 2)

	rec = doJSON(t, s, http.MethodPost, "/api/classify/analyze", `{"file_path":"chats/alpha.md","test_type":"length"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Alpha Chat", body["file_info"].(map[string]any)["title"])

	rec = doJSON(t, s, http.MethodPost, "/api/classify/analyze", `{"file_path":"chats/alpha.md","test_type":"compare"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, s, http.MethodPost, "/api/classify/analyze", `{"file_path":"chats/alpha.md"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/classify/batch",
		`{"file_paths":["chats/alpha.md","chats/beta.md","chats/none.md"],"test_type":"length"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 3, body["total_files"])
	assert.EqualValues(t, 1, body["successful_analyses"])
	results := body["results"].([]any)
	assert.Equal(t, "plugin crashed", results[1].(map[string]any)["error"])
	assert.Equal(t, "file not found", results[2].(map[string]any)["error"])
}
