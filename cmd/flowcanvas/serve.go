package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/aretw0/flowcanvas/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Opens the configured document (creating it when missing) and exposes the
editor as a JSON API over HTTP, with Prometheus metrics on /metrics and state
diffs streamed on /events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		docID, _ := cmd.Flags().GetString("document")
		ed, err := stack.NewEditor(docID)
		if err != nil {
			return err
		}
		if err := ed.Open(cmd.Context()); err != nil {
			return err
		}

		addr := stack.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		server := httpadapter.NewServer(ed,
			httpadapter.WithLogger(stack.Logger),
			httpadapter.WithMetricsHandler(stack.Metrics.Handler()),
		)
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			stack.Logger.Info("starting server", "addr", srv.Addr, "document", ed.DocumentID())
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			stack.Logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				stack.Logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				srv.Close()
			}

			save, _ := cmd.Flags().GetBool("save-on-exit")
			if save {
				if err := ed.Save(ctx); err != nil {
					return err
				}
				stack.Logger.Info("document saved", "document", ed.DocumentID())
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (overrides server.addr)")
	serveCmd.Flags().StringP("document", "d", "", "Document to edit (overrides document)")
	serveCmd.Flags().Bool("save-on-exit", true, "Save the document on shutdown")
}
