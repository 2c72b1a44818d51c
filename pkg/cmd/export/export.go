/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package export

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/export"
	"github.com/Paintersrp/chatseek/internal/state"
	"github.com/Paintersrp/chatseek/pkg/arg"
	"github.com/Paintersrp/chatseek/pkg/flags"
)

type options struct {
	format    string
	output    string
	s3        bool
	clipboard bool
}

func NewCmdExport(s *state.State) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "export [terms...]",
		Aliases: []string{"e"},
		Short:   "Export search results as CSV or JSON.",
		Long: heredoc.Doc(`
			Export runs a search and writes the ranked results to a file,
			stdout, an S3 bucket or the clipboard.

			Formats:
			  csv        every result field
			  csv-paths  file paths only
			  json       results with the query that produced them

			Examples:
			  chatseek export terraform --format json
			  chatseek export terraform --format csv-paths --path-type full -o -
			  chatseek export incident --s3
			  chatseek export incident --clipboard
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, args, opts)
		},
	}

	flags.AddQuery(cmd)
	flags.AddPathType(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "csv, csv-paths or json (default from workspace settings)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, or - for stdout (default is a timestamped file)")
	cmd.Flags().BoolVar(&opts.s3, "s3", false, "Upload to the workspace S3 bucket")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the result paths to the clipboard")
	cmd.MarkFlagsMutuallyExclusive("output", "s3", "clipboard")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, args []string, opts options) error {
	if _, err := arg.HandleTerms(args); err != nil {
		return err
	}

	_, ws := s.Current()
	q, err := flags.HandleQuery(cmd, args, ws)
	if err != nil {
		return err
	}
	pathType, err := flags.HandlePathType(cmd, ws)
	if err != nil {
		return err
	}
	formatName := opts.format
	if formatName == "" {
		formatName = ws.Export.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	report, err := s.Archive.Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	now := time.Now()
	exportOpts := export.Options{
		Format:   format,
		PathType: pathType,
		Root:     ws.ArchiveDir,
		Query:    q,
		Now:      now,
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.clipboard:
		n, err := export.CopyPaths(report.Results, exportOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Copied %d paths to the clipboard\n", n)
		return nil

	case opts.s3:
		if strings.TrimSpace(ws.Export.S3Bucket) == "" {
			return errors.New("export.s3_bucket is not set; run `chatseek settings set export.s3_bucket <bucket>`")
		}
		data, err := export.Encode(report.Results, exportOpts)
		if err != nil {
			return err
		}
		sink, err := export.NewS3Sink(cmd.Context(), ws.Export.S3Bucket, ws.Export.S3Prefix, ws.Export.S3Region)
		if err != nil {
			return err
		}
		location, err := sink.Put(cmd.Context(), export.FileName(format, now), data, format.ContentType())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Uploaded %d results to %s\n", len(report.Results), location)
		return nil

	case opts.output == "-":
		return export.Write(out, report.Results, exportOpts)
	}

	path := opts.output
	if path == "" {
		path = export.FileName(format, now)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, report.Results, exportOpts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %d results to %s\n", len(report.Results), path)
	return nil
}
