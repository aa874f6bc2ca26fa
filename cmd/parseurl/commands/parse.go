package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"wishshare/config"
	"wishshare/models"
	"wishshare/scraper"

	"github.com/spf13/cobra"
)

var (
	parseNoCache bool
	parseJSON    bool
)

func init() {
	parseCmd.Flags().BoolVar(&parseNoCache, "no-cache", false, "Bypass the parse cache for this run.")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the record as JSON.")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <url> [--no-cache] [--json]",
	Short: "Extracts product data from a marketplace URL.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadParserConfig()

		var resultCache scraper.ResultCache
		if !parseNoCache {
			parseCache, err := openCache(cfg)
			if err == nil {
				defer parseCache.Close()
				resultCache = parseCache
			}
		}

		productScraper := scraper.NewProductScraper(cfg, resultCache, nil)
		record, err := productScraper.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if parseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(models.PreviewResponse{URL: scraper.NormalizeURL(args[0]), ProductRecord: record})
		}
		printRecord(record)
		return nil
	},
}

func printRecord(record *models.ProductRecord) {
	field := func(name string, value *string) {
		if value != nil {
			fmt.Printf("%-13s %s\n", name+":", *value)
		} else {
			fmt.Printf("%-13s -\n", name+":")
		}
	}

	field("title", record.Title)
	if record.Price != nil {
		fmt.Printf("%-13s %.2f\n", "price:", *record.Price)
	} else {
		fmt.Printf("%-13s -\n", "price:")
	}
	field("currency", record.Currency)
	field("image", record.ImageURL)
	field("brand", record.Brand)
	field("availability", record.Availability)
	field("description", record.Description)
}
