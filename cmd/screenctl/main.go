package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "screenctl",
		Short: "CLI client for the sanctions screening REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Screening service base URL")

	screenCmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen a person or entity name",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			searchType, _ := cmd.Flags().GetString("type")
			return runScreen(apiFlag, name, searchType, os.Stdout)
		},
	}
	screenCmd.Flags().StringP("name", "n", "", "Name to screen (required)")
	screenCmd.Flags().StringP("type", "t", "person", "Search type: person or entity")
	_ = screenCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(screenCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show service health and watchlist cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(apiFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
