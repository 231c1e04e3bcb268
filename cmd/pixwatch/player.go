package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/pixwatch/pixwatch/internal/colors"
	"github.com/pixwatch/pixwatch/internal/player"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "print the current playback sample",
	Long:  `samples the configured mpris player once and prints what it reports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		svc, err := player.NewService(bus, cfg.MprisService)
		if err != nil {
			return err
		}

		sample := svc.Sample()
		if !sample.Active {
			fmt.Println("no active player")
			if players, err := svc.ListPlayers(); err == nil && len(players) > 0 {
				fmt.Println("available players:")
				for _, p := range players {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		}

		trk := sample.Track
		status := "paused"
		if sample.Playing {
			status = "playing"
		}

		fmt.Printf("title:     %s\n", trk.Title)
		fmt.Printf("artist:    %s\n", trk.Artist)
		fmt.Printf("album:     %s\n", trk.Album)
		fmt.Printf("source:    %s\n", trk.Source)
		fmt.Printf("status:    %s (rate %.2f)\n", status, sample.Rate)
		fmt.Printf("position:  %s / %s\n",
			colors.FormatTime(sample.Position), colors.FormatTime(trk.DurationSecs))
		if trk.ArtworkURL != "" {
			fmt.Printf("artwork:   %s\n", trk.ArtworkURL)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
}
