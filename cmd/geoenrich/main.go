package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var osmFile string

var rootCmd = &cobra.Command{
	Use:   "geoenrich",
	Short: "Geo enrichment of listing events",
	Long: "Loads POIs from an OpenStreetMap extract and district boundaries per city, enriches raw " +
		"listing events from a redis stream and serves district/nearby lookups over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// the flag wins over .env, config.yaml and the environment
		if osmFile != "" {
			if err := os.Setenv("OSM_FILE", osmFile); err != nil {
				return fmt.Errorf("set OSM_FILE: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&osmFile, "osm-file", "f", "", "osm extract (.osm.pbf, .osm, .osm.gz), overrides OSM_FILE")
	rootCmd.AddCommand(serveCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
