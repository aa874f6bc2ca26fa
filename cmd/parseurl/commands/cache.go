package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"wishshare/config"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheFlushCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Parse cache maintenance.",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Deletes every cached parse result.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		parseCache, err := openCache(config.LoadParserConfig())
		if err != nil {
			return err
		}
		defer parseCache.Close()

		deleted, err := parseCache.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to flush parse cache: %w", err)
		}
		fmt.Printf("deleted %d cached results\n", deleted)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints parse cache statistics.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		parseCache, err := openCache(config.LoadParserConfig())
		if err != nil {
			return err
		}
		defer parseCache.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parseCache.Stats(cmd.Context()))
	},
}
