package main

import (
	"fmt"
	"os"

	"github.com/nebari-dev/wabastudio/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveMode string
)

// @title wabastudio API
// @version 1.0
// @description WhatsApp message template composer API
// @host localhost:8470
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and/or the submission worker",
	Long: `Start wabastudio with API and/or worker components.

Examples:
  wabastudio serve                    # Run both API server and worker
  wabastudio serve --mode server      # Run API server only
  wabastudio serve --mode worker      # Run worker only
  wabastudio serve --port 8080        # Override port

Environment variables:
  WABASTUDIO_SERVER_PORT         Server port (default: 8470)
  WABASTUDIO_DATABASE_DRIVER     Database driver: sqlite, postgres
  WABASTUDIO_DATABASE_DSN        Database connection string
  WABASTUDIO_QUEUE_TYPE          Queue type: memory, valkey
  WABASTUDIO_AUTH_JWT_SECRET     JWT signing secret
  WABASTUDIO_CRYPTO_SECRET       Secret sealing stored access tokens
  WABASTUDIO_GRAPH_APP_SECRET    Meta app secret for appsecret_proof
  WABASTUDIO_EVENTS_AMQP_URL     RabbitMQ URL for template events
  ADMIN_USERNAME                 Bootstrap admin username
  ADMIN_PASSWORD                 Bootstrap admin password`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", "", "Run mode: server, worker, or both (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Mode:    serveMode,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		osExit(1)
	}
}
