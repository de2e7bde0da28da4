package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/present"
	"github.com/mithrel/docman/internal/util"
)

func newTagsCmd() *cobra.Command {
	var out outputFlags
	var limit int
	cmd := &cobra.Command{
		Use:   "tags [term]",
		Short: "List known tags, best matches first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 1 {
				term = strings.TrimSpace(args[0])
			}
			if limit <= 0 {
				limit = app.Cfg.GetInt("tags.suggest_limit")
			}
			found, err := app.Client.ListTags(cmd.Context(), term)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(found))
			for _, t := range found {
				names = append(names, t.TagName)
			}
			ranked := util.RankTags(term, names, limit)
			if ranked == nil {
				ranked = []string{}
			}
			if opts.Mode == present.ModeTUI {
				opts.Mode = present.ModePlain
			}
			return present.RenderValue(cmd.OutOrStdout(), ranked, ranked, opts)
		},
	}
	out.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of tags (default from config)")
	return cmd
}
