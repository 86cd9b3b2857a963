package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
	"github.com/mdklatt/idea-plugin-repo/internal/preview"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built site locally for preview",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runServe(log, cmd); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringP("addr", "a", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringP("dir", "d", "", "site directory to serve (defaults to the configured output)")
	return cmd
}

func runServe(log *logrus.Logger, cmd *cobra.Command) error {
	dir := must(cmd.Flags().GetString("dir"))
	if dir == "" {
		cfg, err := config.Load(must(cmd.Flags().GetString("config")))
		if err != nil {
			return err
		}
		dir = cfg.Output
	}

	srv := &http.Server{
		Addr:    must(cmd.Flags().GetString("addr")),
		Handler: preview.New(log, dir),
	}
	go func() {
		log.Infof("serving %s on http://%s", dir, srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	log.Println("stopping server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
