package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run: ytlists login")

func (r *runtime) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [redirect-url]",
		Short: "Sign in to YouTube",
		Long: `Without arguments, prints the authorization URL to open in a browser.

After approving, the browser lands on the redirect URI with the access token
in the fragment. Pass that full URL back to finish signing in:

  ytlists login 'http://localhost:5173/#access_token=...'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 0 {
				a.Session.Login()
				fmt.Fprintln(cmd.OutOrStdout(), "Then run: ytlists login '<url you were redirected to>'")
				return nil
			}

			if err := a.Session.CompleteRedirect(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.Session.Wait()
			if p, found := a.Session.Profile(); found && p.Name != "" {
				ok(cmd.OutOrStdout(), "Signed in as %s", p.Name)
			} else {
				ok(cmd.OutOrStdout(), "Signed in")
			}
			return nil
		},
	}
}

func (r *runtime) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential and profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Session.Logout(cmd.Context(), nil); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (r *runtime) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, signedIn := a.Session.Credential(); !signedIn {
				return errNotSignedIn
			}
			a.Session.Wait()

			out := cmd.OutOrStdout()
			p, found := a.Session.Profile()
			if !found {
				warn(out, "Signed in, but the profile could not be loaded")
				return nil
			}
			fmt.Fprintf(out, "  %-8s %s\n", "name:", color.CyanString(p.Name))
			if p.Email != "" {
				fmt.Fprintf(out, "  %-8s %s\n", "email:", p.Email)
			}
			if p.ID != "" {
				fmt.Fprintf(out, "  %-8s %s\n", "id:", p.ID)
			}
			return nil
		},
	}
}
