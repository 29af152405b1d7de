package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/gtm-cli/internal/webhook"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook receiver for testing campaign delivery",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		rc := webhook.NewReceiver(cfg.Server.MaxStored, cfg.Server.AllowedOrigin)
		return webhook.ListenAndServe(cmd.Context(), cfg.Server.Port, rc.Routes())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
