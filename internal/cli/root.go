package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/docman/internal/config"
	"github.com/mithrel/docman/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that run without a configured App.
const skipApp = "docman/skip-app"

// Execute is the entrypoint: it builds the root cobra.Command
// and calls its Execute() method to run the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var (
		cfgPath string
		built   *wire.App
	)

	cmd := &cobra.Command{
		Use:           "docman",
		Short:         "docman: upload and search documents in the document service",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd) {
				return nil
			}
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			applyConfigFlagOverrides(cmd, v, map[string]string{
				"log-level":   "log.level",
				"base-url":    "api.base_url",
				"token-store": "auth.token_store",
			})
			if err := config.CheckConfigValidity(v); err != nil {
				return err
			}
			app, err := wire.BuildApp(cmd.Context(), v, wire.Options{LogOutput: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			built = app
			ctx := context.WithValue(cmd.Context(), appKey, app)
			cmd.SetContext(ctx)
			return nil
		},
		// Covers commands added by cobra itself, such as help.
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeApp(&built)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (toml|yaml)")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("base-url", "", "document service base URL")
	pf.String("token-store", "", "session store: auto|keyring|file|sqlite|memory")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newRecentCmd())
	cmd.AddCommand(newTUICmd())
	cmd.AddCommand(newStubServerCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.RunE = func(cmd *cobra.Command, args []string) error { return cmd.Help() }

	closeAfterRun(cmd, &built)
	return cmd
}

// closeAfterRun wraps every RunE in the tree so the App is closed once the
// command returns. Cobra skips post-run hooks when RunE fails.
func closeAfterRun(c *cobra.Command, app **wire.App) {
	for _, sub := range c.Commands() {
		closeAfterRun(sub, app)
	}
	run := c.RunE
	if run == nil {
		return
	}
	c.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := closeApp(app); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

func closeApp(app **wire.App) error {
	a := *app
	if a == nil {
		return nil
	}
	*app = nil
	return a.Close()
}

func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipApp] == "true" {
			return true
		}
	}
	return false
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}
