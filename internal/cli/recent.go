package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mithrel/docman/internal/present"
	"github.com/mithrel/docman/internal/search"
	"github.com/mithrel/docman/pkg/api"
)

type dashboard struct {
	Recent    []api.DocumentRecord `json:"recent" yaml:"recent"`
	Total     int                  `json:"total_documents" yaml:"total_documents"`
	TagsCount int                  `json:"total_tags" yaml:"total_tags"`
}

func newRecentCmd() *cobra.Command {
	var out outputFlags
	var n int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest uploads and collection totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			if n <= 0 {
				n = app.Cfg.GetInt("dashboard.recent")
			}

			var d dashboard
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				resp, err := app.Client.SearchDocuments(ctx, search.BuildQuery(search.Filters{}, search.Page{Size: n}, ""))
				if err != nil {
					return err
				}
				d.Recent = resp.Data
				if len(d.Recent) > n {
					d.Recent = d.Recent[:n]
				}
				d.Total = resp.RecordsTotal
				return nil
			})
			g.Go(func() error {
				tags, err := app.Client.ListTags(ctx, "")
				if err != nil {
					return err
				}
				d.TagsCount = len(tags)
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.Mode.Machine() {
				return present.RenderValue(w, d, nil, opts)
			}
			if opts.Mode == present.ModeTUI {
				opts.Mode = present.ModePlain
			}
			opts.Footer = fmt.Sprintf("%d documents, %d tags", d.Total, d.TagsCount)
			return present.RenderDocuments(w, d.Recent, opts)
		},
	}
	out.register(cmd)
	cmd.Flags().IntVarP(&n, "count", "n", 0, "number of recent documents (default from config)")
	return cmd
}
