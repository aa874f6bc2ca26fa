package commands

import (
	"context"
	"fmt"
	"os"

	"wishshare/cache"
	"wishshare/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "parseurl",
	Short:         "parseurl extracts product previews and maintains the parse cache.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openCache returns the configured parse cache, or an error when caching is off
func openCache(cfg *config.ParserConfig) (*cache.ParseCache, error) {
	parseCache, err := cache.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if parseCache == nil {
		return nil, fmt.Errorf("parse cache is disabled (PARSE_CACHE_ENABLED=false)")
	}
	return parseCache, nil
}
