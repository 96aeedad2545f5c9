// Command dispatchd is the emergency dispatch backbone's process entry
// point: it wires config, storage, the triage/routing/resource/green-wave
// core, and the five net/http endpoints of spec.md §6 into one running
// server, following the teacher's cmd/pulse idiom (a cobra root command
// defaulting to "serve", plus auxiliary subcommands).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "dispatchd",
	Short:   "Emergency dispatch routing backbone",
	Long:    `dispatchd triages incoming incidents, ranks responding vehicles and agents, and tracks them to arrival.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dispatchd %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
