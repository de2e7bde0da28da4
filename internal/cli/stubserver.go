package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/docman/internal/config"
	"github.com/mithrel/docman/internal/logger"
	"github.com/mithrel/docman/internal/server"
)

func newStubServerCmd() *cobra.Command {
	var seed []string
	cmd := &cobra.Command{
		Use:         "stub-server",
		Short:       "Run an in-memory document service for local development",
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				v.SetConfigFile(p)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			applyConfigFlagOverrides(cmd, v, map[string]string{
				"log-level": "log.level",
				"addr":      "server.addr",
				"otp":       "server.otp",
			})
			level := v.GetString("log.level")
			if level == "" || level == "warn" {
				level = "info"
			}
			log, err := logger.NewJSON(level, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			srv, err := server.New(server.Config{OTP: v.GetString("server.otp"), Logger: log})
			if err != nil {
				return err
			}
			for _, path := range seed {
				n, err := srv.LoadFixtures(path)
				if err != nil {
					return err
				}
				log.Info("seeded", zap.String("file", path), zap.Int("documents", n))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, v.GetString("server.addr"), func(addr string) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s (otp %s)\n", addr, v.GetString("server.otp"))
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config server.addr)")
	cmd.Flags().String("otp", "", "OTP accepted for every number (default from config server.otp)")
	cmd.Flags().StringSliceVar(&seed, "seed", nil, "YAML fixture file with documents to preload (repeatable)")
	return cmd
}
