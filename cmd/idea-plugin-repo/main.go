package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func setupLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return log
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	log := setupLogger()
	cmd := &cobra.Command{
		Use:     "idea-plugin-repo",
		Short:   "Build a static JetBrains plugin repository site",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringP("config", "c", "config.yml", "site configuration file")
	cmd.AddCommand(newBuildCmd(log), newPublishCmd(log), newServeCmd(log))

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
