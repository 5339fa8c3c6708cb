package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brianjwalters/graphrag-service/internal/cli"
	"github.com/brianjwalters/graphrag-service/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphragd",
		Short: "GraphRAG daemon",
		Long:  "GraphRAG daemon for running the retrieval and orchestration API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
