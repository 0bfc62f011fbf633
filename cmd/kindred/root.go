package main

import (
	"context"
	"os"

	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "kindred",
	Short: "Kindred — an AI chat companion engine",
	Long:  `Kindred is a chat companion that remembers: long-term memory extraction, topic and emotion tracking, provider fallback, and style mirroring.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
