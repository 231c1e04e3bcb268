package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/pixwatch/pixwatch/internal/artwork"
	"github.com/pixwatch/pixwatch/internal/cache"
	"github.com/pixwatch/pixwatch/internal/config"
	"github.com/pixwatch/pixwatch/internal/fetch"
	"github.com/pixwatch/pixwatch/internal/lyrics"
	"github.com/pixwatch/pixwatch/internal/metadata"
	"github.com/pixwatch/pixwatch/internal/pixel"
	"github.com/pixwatch/pixwatch/internal/player"
	"github.com/pixwatch/pixwatch/internal/state"
	"github.com/pixwatch/pixwatch/internal/terminal"
	"github.com/pixwatch/pixwatch/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive viewer",
	Long:  `starts the terminal viewer with pixel art, theme, progress, and synchronized lyrics.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// loadConfig merges the environment config with flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()

	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.LrclibURL = lrclibURL
	}
	if cmd.Flags().Changed("sync-offset") {
		cfg.SyncOffset = syncOffset
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache = noCache
	}
	if gridSize > 0 {
		cfg.GridSize = gridSize
	}
	if paletteSize > 0 {
		cfg.PaletteSize = paletteSize
	}
	return cfg
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()

	defer terminal.Reset()

	cfg := loadConfig(cmd)

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, cfg.MprisService)
	if err != nil {
		return fmt.Errorf("failed to create player service: %w", err)
	}

	shared := state.New()

	var store *cache.Store
	if !cfg.NoCache {
		store = cache.GetGlobal()
	}

	var albums metadata.Provider
	if cfg.HasTidalCredentials() {
		albums = metadata.NewTidalClient(cfg.TidalClientID, cfg.TidalClientSecret)
	}

	worker := &fetch.Worker{
		State:   shared,
		Cache:   store,
		Artwork: artwork.NewHTTPFetcher(),
		Lyrics:  lyrics.NewClient(cfg.LrclibURL),
		Albums:  albums,
		Grid: pixel.Options{
			GridW:  cfg.GridSize,
			GridH:  cfg.GridSize,
			Colors: cfg.PaletteSize,
		},
	}
	go worker.RunPoller(ctx, playerService, config.PollInterval)

	termCaps := terminal.DetectCapabilities()

	listPlayers := func() []string {
		players, err := playerService.ListPlayers()
		if err != nil {
			return nil
		}
		return players
	}

	model := ui.NewModel(shared, termCaps, cfg.SyncOffset, listPlayers)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return nil
}
