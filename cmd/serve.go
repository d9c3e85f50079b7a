package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/api"
	"github.com/hyerim-cho/techterview/internal/logger"
)

const defaultListenAddr = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview session API over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen-addr", "", "address for the HTTP API (overrides server.listen-addr)")

	viper.BindPFlag("server.listen-addr", serveCmd.Flags().Lookup("listen-addr"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting techterview api", zap.String("version", version))

	conductor, cleanup, err := newConductor(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("building interview conductor", zap.Error(err))
	}
	defer cleanup()

	addr := defaultListenAddr
	if config.Server != nil && config.Server.ListenAddr != "" {
		addr = config.Server.ListenAddr
	}

	server := api.NewServer(conductor, addr, zlog)
	if err := server.ListenAndServe(ctx); err != nil {
		zlog.Fatal("session api failed", zap.Error(err))
	}

	zlog.Info("session api stopped")
}
