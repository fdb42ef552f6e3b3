package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ytlists/auth"
	"ytlists/catalog"
	"ytlists/internal/app"
)

func (r *runtime) newSubsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subs",
		Aliases: []string{"subscriptions"},
		Short:   "Work with your subscriptions",
	}
	cmd.AddCommand(
		r.newSubsListCmd(),
		r.newSubsExportCmd(),
		r.newSubsUnsubscribeCmd(),
		r.newSubsChannelCmd(),
	)
	return cmd
}

// fetch loads the whole catalog for the signed-in user.
func fetch(cmd *cobra.Command, a *app.App) (catalog.Snapshot, error) {
	if _, signedIn := a.Session.Credential(); !signedIn {
		return catalog.Snapshot{}, errNotSignedIn
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Fetching subscriptions...")
	if err := a.Fetcher.FetchAll(cmd.Context()); err != nil {
		return catalog.Snapshot{}, upstreamError(err)
	}
	return a.Catalog.Load(), nil
}

func upstreamError(err error) error {
	err = auth.ClassifyError(err)
	if errors.Is(err, auth.ErrCredentialRejected) {
		return fmt.Errorf("%w (run: ytlists logout && ytlists login)", err)
	}
	return err
}

func (r *runtime) newSubsListCmd() *cobra.Command {
	var (
		sortBy string
		filter string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribed channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := catalog.ParseOrder(sortBy)
			if err != nil {
				return err
			}

			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := fetch(cmd, a)
			if err != nil {
				return err
			}

			items := catalog.Sort(snap.Items, order)
			if filter != "" {
				items = catalog.FilterByTitle(items, filter)
			}

			if asJSON {
				data, err := catalog.Snapshot{Items: items, Available: true}.JSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			printItems(cmd.OutOrStdout(), items)
			fmt.Fprintf(cmd.ErrOrStderr(), "\nTotal: %d of %d subscriptions\n", len(items), len(snap.Items))
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by: name, date, subscribers, videos")
	cmd.Flags().StringVar(&filter, "filter", "", "Only channels whose title contains this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the provider JSON instead of a table")
	return cmd
}

func printItems(w io.Writer, items []catalog.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No subscriptions found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBSCRIPTION ID\tCHANNEL ID\tTITLE\tSUBSCRIBERS\tVIDEOS")
	for _, it := range items {
		var subs, videos string
		if it.Statistics != nil {
			subs, videos = it.Statistics.SubscriberCount, it.Statistics.VideoCount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ID,
			it.ChannelID(),
			truncate(it.Snippet.Title, 50),
			subs,
			videos,
		)
	}
	tw.Flush()
}

func (r *runtime) newSubsExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := fetch(cmd, a)
			if err != nil {
				return err
			}
			data, err := snap.JSON()
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			ok(cmd.ErrOrStderr(), "Exported %d subscriptions to %s", len(snap.Items), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "subscriptions.json", "Output file, or - for stdout")
	return cmd
}

func (r *runtime) newSubsUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <subscription-id>",
		Short: "Unsubscribe and refresh the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, signedIn := a.Session.Credential(); !signedIn {
				return errNotSignedIn
			}
			if err := a.Fetcher.Unsubscribe(cmd.Context(), args[0]); err != nil {
				return upstreamError(err)
			}
			n, _ := a.Catalog.Count()
			ok(cmd.OutOrStdout(), "Unsubscribed %s (%d subscriptions left)", args[0], n)
			return nil
		},
	}
}

func (r *runtime) newSubsChannelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel <channel-id>",
		Short: "Show statistics for one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Fetcher.ChannelDetails(cmd.Context(), args[0])
			if err != nil {
				return upstreamError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.New(color.Bold).Sprint(d.Snippet.Title))
			fmt.Fprintf(out, "  %-13s %s\n", "id:", d.ChannelID)
			if s := d.Statistics; s != nil {
				fmt.Fprintf(out, "  %-13s %s\n", "subscribers:", s.SubscriberCount)
				fmt.Fprintf(out, "  %-13s %s\n", "videos:", s.VideoCount)
				fmt.Fprintf(out, "  %-13s %s\n", "views:", s.ViewCount)
			}
			if b := d.BrandingSettings; b != nil && b.Image != nil && b.Image.BannerExternalURL != "" {
				fmt.Fprintf(out, "  %-13s %s\n", "banner:", b.Image.BannerExternalURL)
			}
			return nil
		},
	}
}
