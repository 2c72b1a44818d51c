package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Paintersrp/chatseek/internal/constants"
	"github.com/Paintersrp/chatseek/internal/search"
)

// ErrUnknownFormat is returned for export formats other than csv, csv-paths
// and json.
var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatCSV      Format = "csv"
	FormatCSVPaths Format = "csv-paths"
	FormatJSON     Format = "json"
)

// ParseFormat validates s as an export format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatCSVPaths, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// ContentType returns the MIME type of the encoded export.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

type PathType string

const (
	PathRelative PathType = "relative"
	PathFull     PathType = "full"
)

// ParsePathType maps user input onto a PathType. Unknown values are relative.
func ParsePathType(s string) PathType {
	if strings.EqualFold(strings.TrimSpace(s), string(PathFull)) {
		return PathFull
	}
	return PathRelative
}

// DateLayout formats modification times in CSV exports.
const DateLayout = "2006-01-02 15:04"

var csvHeader = []string{"File Path", "Title", "Matches", "File Size", "Modified Date", "Create Time", "Conversation ID"}

// Options describe one export.
type Options struct {
	Format   Format
	PathType PathType
	// Root is joined to result paths when PathType is PathFull.
	Root  string
	Query search.Query
	Now   time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// FileName returns the suggested download name for an export created at now.
func FileName(format Format, now time.Time) string {
	kind := "results"
	if format == FormatCSVPaths {
		kind = "paths"
	}
	return fmt.Sprintf("%s_%s_%s.%s", constants.ExportPrefix, kind, now.Format("20060102_150405"), format.Extension())
}

// Path renders a result path according to the path type.
func (o Options) Path(rel string) string {
	if o.PathType == PathFull && o.Root != "" {
		return filepath.Join(o.Root, filepath.FromSlash(rel))
	}
	return rel
}

// Paths returns the rendered path of every result.
func Paths(results []search.Result, opts Options) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, opts.Path(r.Path))
	}
	return out
}

// Write encodes results in the requested format.
func Write(w io.Writer, results []search.Result, opts Options) error {
	switch opts.Format {
	case FormatCSV, "":
		return writeCSV(w, results, opts)
	case FormatCSVPaths:
		return writePathsCSV(w, results, opts)
	case FormatJSON:
		return writeJSON(w, results, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// Encode is Write into a byte slice.
func Encode(results []search.Result, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, results, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSV(w io.Writer, results []search.Result, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			opts.Path(r.Path),
			r.Title,
			strconv.Itoa(r.Matches),
			strconv.FormatInt(r.Size, 10),
			r.ModifiedAt.Local().Format(DateLayout),
			r.CreateTime,
			r.ConversationID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePathsCSV(w io.Writer, results []search.Result, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"File Path"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{opts.Path(r.Path)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// QuerySummary is the query echoed back in JSON exports.
type QuerySummary struct {
	Terms           string   `json:"terms"`
	Exclude         string   `json:"exclude"`
	Mode            string   `json:"mode"`
	SearchIn        string   `json:"search_in"`
	CaseSensitive   bool     `json:"case_sensitive"`
	DateFrom        string   `json:"date_from,omitempty"`
	DateTo          string   `json:"date_to,omitempty"`
	IncludedFolders []string `json:"included_folders,omitempty"`
	ExcludedFolders []string `json:"excluded_folders,omitempty"`
}

// Summarize converts q into its exported form.
func Summarize(q search.Query) QuerySummary {
	s := QuerySummary{
		Terms:           q.Terms,
		Exclude:         q.Exclude,
		Mode:            q.Mode.String(),
		SearchIn:        q.Scope.String(),
		CaseSensitive:   q.CaseSensitive,
		IncludedFolders: q.IncludedFolders,
		ExcludedFolders: q.ExcludedFolders,
	}
	if q.DateFrom != nil {
		s.DateFrom = q.DateFrom.Format("2006-01-02")
	}
	if q.DateTo != nil {
		s.DateTo = q.DateTo.Format("2006-01-02")
	}
	return s
}

type document struct {
	SearchQuery  QuerySummary    `json:"search_query"`
	Timestamp    string          `json:"timestamp"`
	TotalResults int             `json:"total_results"`
	Results      []search.Result `json:"results"`
}

func writeJSON(w io.Writer, results []search.Result, opts Options) error {
	rendered := make([]search.Result, len(results))
	for i, r := range results {
		r.Path = opts.Path(r.Path)
		rendered[i] = r
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(document{
		SearchQuery:  Summarize(opts.Query),
		Timestamp:    opts.now().Format(time.RFC3339),
		TotalResults: len(results),
		Results:      rendered,
	})
}
