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
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/server"
	"github.com/Paintersrp/chatseek/internal/state"
)

const shutdownTimeout = 10 * time.Second

func NewCmdServe(s *state.State) *cobra.Command {
	var host string
	var port int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive search over HTTP.",
		Long: heredoc.Doc(`
			Serve starts the HTTP API for searching, browsing, exporting and
			classifying the archive. Edits to the config file are picked up
			without a restart.

			Examples:
			  chatseek serve
			  chatseek serve --host 127.0.0.1 --port 8080
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ws := s.Current()
			if !cmd.Flags().Changed("host") {
				host = ws.Server.Host
			}
			if !cmd.Flags().Changed("port") {
				port = ws.Server.Port
			}
			if port < 1 || port > 65535 {
				return fmt.Errorf("invalid --port %d", port)
			}

			if watch {
				if err := s.WatchConfig(); err != nil {
					logger.Warn("config hot reload disabled: %v", err)
				}
			}

			srv := server.New(s)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			addr := host + ":" + strconv.Itoa(port)
			go func() { errCh <- srv.Start(addr) }()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving workspace %q on http://%s\n", s.WorkspaceName, addr)
			if line := s.StatusLine(); line != "" {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Address to bind (default from workspace settings)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from workspace settings)")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload when the config file changes")

	return cmd
}
