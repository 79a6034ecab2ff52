package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/server"
	"github.com/inference-sim/schedsim/sim/history"
)

var (
	serveAddr    string
	serveDB      string
	serveHorizon int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulator over a JSON HTTP API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var st *history.Store
		if serveDB != "" {
			var err error
			st, err = openHistory(ctx, serveDB)
			if err != nil {
				logrus.Fatalf("Opening history: %v", err)
			}
			defer st.Close()
		}

		cfg := server.DefaultConfig()
		if cmd.Flags().Changed("horizon") {
			cfg.Horizon = serveHorizon
		}
		httpServer := &http.Server{
			Addr:              serveAddr,
			Handler:           server.New(cfg, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logrus.WithFields(logrus.Fields{"addr": serveAddr, "db": serveDB}).Info("server starting")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("Server failed: %v", err)
			}
		}()

		<-ctx.Done()
		logrus.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Shutdown error: %v", err)
		}
		logrus.Info("server stopped")
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "Record submitted runs in this SQLite history database")
	serveCmd.Flags().Int64Var(&serveHorizon, "horizon", server.DefaultConfig().Horizon, "Tick cap per submitted simulation (0 = unlimited)")

	rootCmd.AddCommand(serveCmd)
}
