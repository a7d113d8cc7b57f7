package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mizunashi-mana/archivedon/internal/config"
	"github.com/mizunashi-mana/archivedon/internal/server"
	"github.com/mizunashi-mana/archivedon/internal/tracer"
)

var (
	serveConfigPath string
	serveAddr       string
	servePort       uint16
)

// serveCmd serves a produced mirror.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an archived mirror",
	Run: func(cmd *cobra.Command, args []string) {
		conf, err := config.Load(serveConfigPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		if serveAddr != "" {
			conf.Server.Addr = serveAddr
		}
		if servePort != 0 {
			conf.Server.Port = servePort
		}

		if conf.Server.EnableTrace {
			shutdown, err := tracer.Setup(context.Background(), conf.Server.TraceEndpoint)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to set up tracing")
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("failed to shut down tracing")
				}
			}()
		}

		srv, err := server.New(conf)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize server")
		}
		if err := srv.Run(); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "config.yaml", "Server config file (YAML)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().Uint16Var(&servePort, "port", 0, "Listen port (overrides config)")
}
