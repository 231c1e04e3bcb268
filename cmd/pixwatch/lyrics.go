package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/pixwatch/pixwatch/internal/lyrics"
	"github.com/pixwatch/pixwatch/internal/player"
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics [artist] [title]",
	Short: "fetch and print lyrics",
	Long: `fetches lyrics for the given artist and title, or for the currently
playing track when no arguments are given.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		params := lyrics.TrackParams{}
		switch len(args) {
		case 2:
			params.Artist = args[0]
			params.Title = args[1]
		case 0:
			bus, err := dbus.ConnectSessionBus()
			if err != nil {
				return fmt.Errorf("failed to connect to session bus: %w", err)
			}
			defer bus.Close()

			svc, err := player.NewService(bus, cfg.MprisService)
			if err != nil {
				return err
			}
			trk, err := svc.CurrentTrack()
			if err != nil {
				return fmt.Errorf("no track playing: %w", err)
			}
			params = lyrics.TrackParams{
				Title:        trk.Title,
				Artist:       trk.Artist,
				Album:        trk.Album,
				DurationSecs: trk.DurationSecs,
			}
		default:
			return fmt.Errorf("need both artist and title, or neither")
		}

		client := lyrics.NewClient(cfg.LrclibURL)
		resp, err := client.Fetch(cmd.Context(), params)
		if err != nil {
			return err
		}

		if resp.Instrumental {
			fmt.Println("(instrumental)")
			return nil
		}
		fmt.Println(resp.Best())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)
}
