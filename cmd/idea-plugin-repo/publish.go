package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
	"github.com/mdklatt/idea-plugin-repo/internal/publish"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPublishCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the built site to the configured bucket",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runPublish(log, cmd); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringP("dir", "d", "", "site directory to upload (defaults to the configured output)")
	return cmd
}

func runPublish(log *logrus.Logger, cmd *cobra.Command) error {
	env, err := config.NewEnv()
	if err != nil {
		return err
	}
	dir := must(cmd.Flags().GetString("dir"))
	if dir == "" {
		cfg, err := config.Load(must(cmd.Flags().GetString("config")))
		if err != nil {
			return err
		}
		dir = cfg.Output
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := env.CreateS3Client(ctx)
	if err != nil {
		return err
	}
	log.Infof("publishing %s to bucket %s...", dir, env.PublishBucket)
	return publish.New(client, env.PublishBucket, env.PublishPrefix, log).PublishDir(ctx, dir)
}
