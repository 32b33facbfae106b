package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the effective skill catalog",
	Run: func(_ *cobra.Command, _ []string) {
		printCatalog()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog() {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	catalog, err := catalogFromConfig(config)
	if err != nil {
		log.Fatalf("building the skill catalog: %s", err)
	}

	pretty, err := json.MarshalIndent(catalog.Entries(), "", "  ")
	if err != nil {
		log.Fatalf("encoding the skill catalog: %s", err)
	}

	fmt.Println(string(pretty))
}
