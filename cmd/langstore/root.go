package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pitabwire/util"
	"github.com/spf13/cobra"

	"github.com/pitabwire/langstore/localization"
	"github.com/pitabwire/langstore/scope"
	"github.com/pitabwire/langstore/translation"
	"github.com/pitabwire/langstore/version"
)

// RootOptions holds the flags locating one resource file.
type RootOptions struct {
	Dir     string
	Unit    string
	Owner   string
	Culture string
	Verbose bool
}

func (o *RootOptions) ownerName() string {
	if o.Owner != "" {
		return o.Owner
	}
	return o.Unit + "Module"
}

// open builds a single unit catalog from the flags and opens its store.
func (o *RootOptions) open(ctx context.Context) (*translation.Store, error) {
	if o.Dir == "" || o.Unit == "" {
		return nil, errors.New("--dir and --unit are required")
	}
	if translation.IsBaseLocale(o.Culture) {
		return nil, fmt.Errorf("culture %q is the base locale and has no resource file", o.Culture)
	}

	registry := scope.NewRegistry()
	unit := scope.Unit{Path: o.Unit, Name: o.Unit, Dir: o.Dir}
	if err := registry.AddUnit(unit); err != nil {
		return nil, err
	}

	owner := scope.TypeRef{Unit: unit.Path, Name: o.ownerName()}
	if err := registry.Declare(owner, scope.CapabilityModule); err != nil {
		return nil, err
	}

	return translation.Open(ctx, registry, owner, o.Culture)
}

func (o *RootOptions) context(cmd *cobra.Command) context.Context {
	levelName := "warn"
	if o.Verbose {
		levelName = "debug"
	}

	logOpts := []util.Option{util.WithLogOutput(cmd.ErrOrStderr()), util.WithLogNoColor(true)}
	if level, err := util.ParseLevel(levelName); err == nil {
		logOpts = append(logOpts, util.WithLogLevel(level))
	}

	log := util.NewLogger(cmd.Context(), logOpts...)
	return util.ContextWithLogger(cmd.Context(), log)
}

// NewRootCommand creates the root command of the langstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "langstore",
		Short: "Inspect and edit module translation files",
		Long: `Read and write the per culture resource files of a module.

Files live at <dir>/Resources/<unit>.<culture>.lang.`,
		Version:      version.String(),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", ".", "module deployment directory")
	cmd.PersistentFlags().StringVar(&opts.Unit, "unit", "", "module name used in file names, e.g. Blog")
	cmd.PersistentFlags().StringVar(&opts.Owner, "owner", "", "owner type name (default <unit>Module)")
	cmd.PersistentFlags().StringVarP(&opts.Culture, "culture", "c", "", "culture code, e.g. fr")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newSetCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>...",
		Short: "Print translations, adding missing keys to the file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.context(cmd)
			store, err := opts.open(ctx)
			if err != nil {
				return err
			}

			var failures []error
			for _, key := range args {
				result := store.Lookup(ctx, key)
				if result.Err != nil {
					failures = append(failures, result.Err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Value)
			}
			return errors.Join(failures...)
		},
	}
}

func newSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a translation and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.context(cmd)
			store, err := opts.open(ctx)
			if err != nil {
				return err
			}

			store.Set(args[0], args[1])
			return store.Save(ctx)
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every entry in file order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := opts.context(cmd)
			store, err := opts.open(ctx)
			if err != nil {
				return err
			}

			for _, entry := range store.Entries() {
				if !all && translation.IsSeedKey(entry.Key) {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.Key, escapeTabs(entry.Value))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include the FileName and Type entries")
	return cmd
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the translations as a go-i18n TOML message file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := opts.context(cmd)
			store, err := opts.open(ctx)
			if err != nil {
				return err
			}

			return localization.WriteTOML(cmd.OutOrStdout(), store)
		},
	}
}

func escapeTabs(value string) string {
	return strings.NewReplacer("\t", `\t`, "\n", `\n`).Replace(value)
}
