package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
	"github.com/mdklatt/idea-plugin-repo/internal/resolve"
	"github.com/mdklatt/idea-plugin-repo/internal/site"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newBuildCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve plugin releases and render the site",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runBuild(log, cmd); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
	return cmd
}

func runBuild(log *logrus.Logger, cmd *cobra.Command) error {
	log.Infof("starting build (version=%s)", version)
	env, err := config.NewEnv()
	if err != nil {
		return err
	}
	cfg, err := config.Load(must(cmd.Flags().GetString("config")))
	if err != nil {
		return err
	}
	if out := must(cmd.Flags().GetString("output")); out != "" {
		cfg.Output = out
	} else if env.OutputDir != "" {
		cfg.Output = env.OutputDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("resolving %d plugins...", len(cfg.Plugins))
	resolver := resolve.New(env.CreateGitHubClient(), log, cfg.Resolver)
	results := resolver.ResolveAll(ctx, cfg.Plugins)

	renderer, err := site.NewRenderer(cfg.Templates)
	if err != nil {
		return err
	}
	docs, err := renderer.Render(cfg, results)
	if err != nil {
		return err
	}
	if err := site.WriteAll(cfg.Output, docs); err != nil {
		return err
	}
	if err := site.CopyStatic(cfg.Static, cfg.Output); err != nil {
		return err
	}
	log.Infof("wrote %d documents to %s", len(docs), cfg.Output)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			log.Errorf("failed to resolve %s: %v", res.Spec.ID, res.Err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plugins failed to resolve", failed, len(results))
	}
	return nil
}
