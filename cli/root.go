// Package cli implements the ytlists command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ytlists/config"
	"ytlists/internal/app"
	"ytlists/internal/logging"
)

// runtime carries what the commands share after flags are parsed.
type runtime struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg     *config.Config
	appOpts []app.Option
}

// NewRootCmd builds the command tree. opts are passed to every app.New the
// commands make.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	r := &runtime{appOpts: opts}

	root := &cobra.Command{
		Use:   "ytlists",
		Short: "Sort your YouTube subscriptions into local lists",
		Long: `ytlists signs in to YouTube, fetches the channels you subscribe to and
lets you group them into named lists stored on this machine.

Sign in with 'ytlists login', then 'ytlists subs list' to see the catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&r.configPath, "config", "", "Config file path (default: ./ytlists.json or ~/.config/ytlists/ytlists.json)")
	root.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&r.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		r.newLoginCmd(),
		r.newLogoutCmd(),
		r.newWhoamiCmd(),
		r.newSubsCmd(),
		r.newListsCmd(),
		r.newServeCmd(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	ctx := context.Background()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func (r *runtime) setup(cmd *cobra.Command) error {
	if r.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(r.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	if err := logging.Setup(cfg.LogLevel, cmd.ErrOrStderr(), !cfg.LogJSON); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

// open starts an App whose terminal agent writes to the command's output.
// The caller must Close it.
func (r *runtime) open(cmd *cobra.Command) (*app.App, error) {
	opts := append([]app.Option{app.WithOutput(cmd.OutOrStdout())}, r.appOpts...)
	return app.New(cmd.Context(), r.cfg, opts...)
}

// ok prints a green success line.
func ok(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.YellowString("!"), fmt.Sprintf(format, a...))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
