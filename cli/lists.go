package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ytlists/lists"
)

func (r *runtime) newListsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage named lists of channels",
	}
	cmd.AddCommand(
		r.newListsLsCmd(),
		r.newListsCreateCmd(),
		r.newListsDeleteCmd(),
		r.newListsShowCmd(),
		r.newListsToggleCmd(),
	)
	return cmd
}

func (r *runtime) newListsLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show all lists",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			names := a.Lists.Names()
			if len(names) == 0 {
				warn(out, "No lists yet. Run: ytlists lists create <name>")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCHANNELS")
			for _, name := range names {
				fmt.Fprintf(tw, "%s\t%d\n", name, a.Lists.ChannelCount(name))
			}
			return tw.Flush()
		},
	}
}

func (r *runtime) newListsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty list",
		Long: `Creates an empty list. Runs of whitespace in the name become '-'.
Names must be at least 3 characters long.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Lists.CreateList(cmd.Context(), args[0]); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Created list %s", color.CyanString(lists.NormalizeName(args[0])))
			return nil
		},
	}
}

func (r *runtime) newListsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			name := args[0]
			if _, exists := a.Lists.Channels(name); !exists {
				warn(cmd.OutOrStdout(), "No list named %s", name)
				return nil
			}
			if err := a.Lists.DeleteList(cmd.Context(), name); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Deleted list %s", name)
			return nil
		},
	}
}

func (r *runtime) newListsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the channels in a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			chans, exists := a.Lists.Channels(args[0])
			if !exists {
				return fmt.Errorf("no list named %q", args[0])
			}
			printItems(cmd.OutOrStdout(), chans)
			return nil
		},
	}
}

func (r *runtime) newListsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name> <subscription-or-channel-id>",
		Short: "Add a subscribed channel to a list, or remove it",
		Long: `Adds the channel to the list when it is not there and removes it
otherwise. The channel is looked up in your current subscriptions.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, id := args[0], args[1]

			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := fetch(cmd, a)
			if err != nil {
				return err
			}
			item, found := snap.Find(id)
			if !found {
				item, found = snap.FindChannel(id)
			}
			if !found {
				return fmt.Errorf("%q is not one of your subscriptions", id)
			}

			added, err := a.Lists.ToggleChannel(cmd.Context(), name, item)
			if err != nil {
				return err
			}
			if added {
				ok(cmd.OutOrStdout(), "Added %s to %s", item.Snippet.Title, name)
			} else {
				ok(cmd.OutOrStdout(), "Removed %s from %s", item.Snippet.Title, name)
			}
			return nil
		},
	}
}
