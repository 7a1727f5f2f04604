package main

import (
	"os"

	"github.com/oakhamlabs/waypost/internal/client"
	"github.com/oakhamlabs/waypost/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	waypostClient *client.Client
)

func defaultServerURL() string {
	if s := os.Getenv("WAYPOST_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultAuthToken() string {
	if s := os.Getenv("WAYPOST_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "waypost <command>",
	Short: "CLI client for the Waypost status service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		waypostClient = client.New(serverURL, authToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultAuthToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "operator", Title: "Operator:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Views
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(slisCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(watchCmd)

	// Operator
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(vnodeCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(refreshCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportdCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
