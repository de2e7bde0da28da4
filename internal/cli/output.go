package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/present"
)

// outputFlags are shared by every command that prints documents or values.
type outputFlags struct {
	mode      string
	noHeaders bool
	compact   bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.mode, "output", "o", "", "output mode: plain|pretty|json|ndjson|yaml|tui (default from config)")
	cmd.Flags().BoolVar(&o.noHeaders, "noheaders", false, "omit the header line in plain output")
	cmd.Flags().BoolVar(&o.compact, "compact", false, "single-line JSON")
	_ = cmd.RegisterFlagCompletionFunc("output", completeOutput)
}

func (o *outputFlags) options(cmd *cobra.Command) (present.Options, error) {
	s := o.mode
	if s == "" {
		s = getApp(cmd).Cfg.GetString("output")
	}
	mode, ok := present.ParseMode(strings.ToLower(s))
	if !ok {
		return present.Options{}, fmt.Errorf("invalid --output %q", s)
	}
	return present.Options{Mode: mode, JSONIndent: !o.compact, Headers: !o.noHeaders}, nil
}
