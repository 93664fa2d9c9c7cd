/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/bloghub/apiserver/config"
	"github.com/bloghub/apiserver/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the bloghub backend server",
	Long: `Starts the bloghub backend server. Usage:

	bloghub server
`,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		cfg := config.LoadConfig()

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			log.WithError(err).Error("failed to start server")
			os.Exit(1)
		}
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("server error")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
