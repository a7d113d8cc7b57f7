package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mizunashi-mana/archivedon/client"
	"github.com/mizunashi-mana/archivedon/internal/archive"
	"github.com/mizunashi-mana/archivedon/internal/resource"
)

var (
	fetchInputPath  string
	fetchOutputPath string
)

// fetchCmd runs the archival pipeline over every account in the input file.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and archive the accounts listed in the input file",
	Run: func(cmd *cobra.Command, args []string) {
		input, err := archive.LoadInput(fetchInputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load input")
		}

		store, err := resource.Open(fetchOutputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open output directory")
		}

		archiver, err := archive.New(client.New(), store, input)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize archiver")
		}

		if err := archiver.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("archival run failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchInputPath, "input", "i", "", "Input description file (JSON)")
	fetchCmd.Flags().StringVarP(&fetchOutputPath, "output", "o", "", "Output resource directory")
	fetchCmd.MarkFlagRequired("input")
	fetchCmd.MarkFlagRequired("output")
}
