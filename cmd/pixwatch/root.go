package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// global flags
	mprisService string
	syncOffset   float64
	lrclibURL    string
	noCache      bool
	gridSize     int
	paletteSize  int
)

var rootCmd = &cobra.Command{
	Use:   "pixwatch",
	Short: "terminal now-playing visualizer with pixel art album covers",
	Long: `pixwatch watches the active mpris player and renders the current track
as reduced pixel art with a palette-derived theme, a progress bar, and
synchronized lyrics.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	rootCmd.PersistentFlags().Float64VarP(&syncOffset, "sync-offset", "s", 0, "initial lyric sync offset in seconds")
	rootCmd.PersistentFlags().StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api base url")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the artwork and lyrics cache")
	rootCmd.PersistentFlags().IntVar(&gridSize, "grid", 0, "pixel art grid size (default 30)")
	rootCmd.PersistentFlags().IntVar(&paletteSize, "colors", 0, "palette size (default 5)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
