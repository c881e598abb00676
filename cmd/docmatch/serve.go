package main

import (
	"github.com/Veraticus/docmatch/internal/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the matching API over HTTP",
		Long: `Serve the matching API over HTTP.

Endpoints:
  POST /v1/match             match two documents
  POST /v1/match-candidates  match a document against candidates
  POST /v1/groups            group documents into three-way matches
  POST /v1/merge-check       check an invoice, delivery and purchase order
  GET  /health, /ready       probes`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	e, s, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	router := api.NewRouter(api.NewHandler(e, s.ready))
	return api.NewServer(cfg.Server.Addr, router).Run(cmd.Context())
}
