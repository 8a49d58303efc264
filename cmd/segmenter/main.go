package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "segmenter",
		Short:        "Split meeting transcripts into agenda item segments",
		SilenceUsage: true,
	}
	root.AddCommand(newSegmentCommand(), newMigrateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
