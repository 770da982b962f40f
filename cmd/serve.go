package main

import (
	"net/http"

	"msescraper/visualization"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [--addr :8080]",
	Short: "Serves the scraped CSV files and a read-only JSON API over them.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config, logger := setup()
		defer logger.Close()

		handler := visualization.NewServer(config.Output.DataFile, config.Output.IssuersFile, logger)
		srv := &http.Server{Addr: serveAddr, Handler: handler}

		go func() {
			<-cmd.Context().Done()
			srv.Close()
		}()

		logger.Info("Starting server on %s", serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
