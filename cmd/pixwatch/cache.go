package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixwatch/pixwatch/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the artwork and lyrics cache",
	Long:  `manage cached artwork bytes and lyrics text, including statistics, pruning, and clearing.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.GetGlobal()

		count, sizeBytes, err := store.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", store.Dir())
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired and unreadable entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		pruned, err := cache.GetGlobal().Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
		fmt.Printf("pruned %d entries\n", pruned)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove all cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cache.GetGlobal().Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
