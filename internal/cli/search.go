package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/docman/internal/present"
	"github.com/mithrel/docman/internal/present/tui"
	"github.com/mithrel/docman/internal/search"
	"github.com/mithrel/docman/internal/util"
	"github.com/mithrel/docman/pkg/api"
)

// FilterOpts are the search criteria shared by search and tui.
type FilterOpts struct {
	MajorHead  string
	MinorHead  string
	From       string
	To         string
	UploadedBy string
	Tags       []string
	Query      string
}

func (f *FilterOpts) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.MajorHead, "major-head", "", "major head")
	fl.StringVar(&f.MinorHead, "minor-head", "", "minor head")
	fl.StringVar(&f.From, "from", "", "from date: DD-MM-YYYY, YYYY-MM-DD, today, 3d, 2w, 1mo")
	fl.StringVar(&f.To, "to", "", "to date (same forms as --from)")
	fl.StringVar(&f.UploadedBy, "uploaded-by", "", "uploader id")
	fl.StringSliceVarP(&f.Tags, "tags", "t", nil, "tags to match (comma-separated, repeatable)")
	fl.StringVarP(&f.Query, "query", "q", "", "free-text search")
}

// apply copies the options into sess. Dates are normalized to DD-MM-YYYY.
func (f FilterOpts) apply(sess *search.Session, now time.Time) error {
	from, to, err := util.NormalizeDateRange(f.From, f.To, now)
	if err != nil {
		return err
	}
	sess.Update(func(fl *search.Filters) {
		fl.MajorHead = f.MajorHead
		fl.MinorHead = f.MinorHead
		fl.UploadedBy = f.UploadedBy
		fl.FromDate = search.Raw(from)
		fl.ToDate = search.Raw(to)
		fl.Query = f.Query
		fl.Tags.Clear()
		for _, t := range f.Tags {
			fl.Tags.AddCSV(t)
		}
	})
	return nil
}

func newSearchCmd() *cobra.Command {
	var filters FilterOpts
	var out outputFlags
	var page, pageSize int
	var all bool
	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Search documents",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			opts, err := out.options(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				if filters.Query != "" {
					return fmt.Errorf("use either --query or positional text, not both")
				}
				filters.Query = strings.Join(args, " ")
			}
			if page < 1 {
				return fmt.Errorf("--page must be 1 or greater")
			}
			sess := app.NewSearchSession(pageSize)
			if err := filters.apply(sess, time.Now()); err != nil {
				return err
			}

			if opts.Mode == present.ModeTUI {
				return runTUISearch(cmd, sess, opts.Headers)
			}
			if all {
				return streamAll(cmd, sess, opts)
			}

			v, err := sess.GoTo(cmd.Context(), page-1)
			if err == nil && len(v.Documents) == 0 && v.Page.Total > 0 {
				// --page was past the end; the index is clamped now.
				v, err = sess.Fetch(cmd.Context())
			}
			if err != nil {
				return err
			}
			if !opts.Mode.Machine() {
				opts.Footer = footerFor(v)
			}
			return renderDocuments(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), v.Documents, opts)
		},
	}
	filters.register(cmd)
	out.register(cmd)
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "documents per page (default from config)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "fetch every page")
	return cmd
}

func footerFor(v search.View) string {
	if v.Page.Total == 0 {
		return "No documents found"
	}
	return "Showing " + v.RangeLabel + " • " + v.PageLabel
}

// streamAll writes every page as it arrives.
func streamAll(cmd *cobra.Command, sess *search.Session, opts present.Options) error {
	return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
		sw := present.NewDocumentStreamWriter(w, opts)
		total := 0
		err := sess.FetchAll(cmd.Context(), func(batch []api.DocumentRecord, p search.Page) error {
			total = p.Total
			return sw.WriteDocuments(batch)
		})
		if cerr := sw.Close(); err == nil {
			err = cerr
		}
		if err == nil && !opts.Mode.Machine() {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d documents\n", total)
		}
		return err
	})
}

func newTUICmd() *cobra.Command {
	var filters FilterOpts
	var pageSize int
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse documents in an interactive table",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			sess := app.NewSearchSession(pageSize)
			if err := filters.apply(sess, time.Now()); err != nil {
				return err
			}
			return runTUISearch(cmd, sess, true)
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "documents per page (default from config)")
	return cmd
}

func runTUISearch(cmd *cobra.Command, sess *search.Session, headers bool) error {
	app := getApp(cmd)
	return tui.RunSearch(cmd.Context(), sess, tui.SearchOptions{
		Headers:      headers,
		Out:          cmd.OutOrStdout(),
		Tags:         app.Client,
		SuggestLimit: app.Cfg.GetInt("tags.suggest_limit"),
	})
}
