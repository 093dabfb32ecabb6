package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/api"
	"github.com/sprite-ai/diffgate/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the diffgate check.

Endpoints:
  GET  /health     Health check
  POST /api/check  Run a check on a repository directory
  GET  /api/ws     WebSocket that streams findings while a check runs

Run flags set the defaults each request starts from. Extension executables
in the requested repository only run with --allow-extensions.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6142, "port to listen on")
	serveCmd.Flags().Bool("allow-extensions", false, "run checks_dir and settings.extensions executables for API requests")
	config.AddFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	allowExt, _ := cmd.Flags().GetBool("allow-extensions")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(fmt.Sprintf("%s:%d", addr, port), cfg, logger)
	srv.Version = version
	srv.AllowExtensions = allowExt
	return srv.Serve(ctx)
}
