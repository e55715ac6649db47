package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/resumeflow/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resolved := a.resolver().Resolve(a.flags)

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, key := range resolved.Keys() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, resolved.Display(key), resolved.Source(key))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			_, err := config.Parse(resolved)
			return err
		},
	}

	cmd.AddCommand(
		newConfigGetCmd(a),
		newConfigSetCmd(a),
		newConfigUnsetCmd(a),
		newConfigKeysCmd(a),
	)
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one resolved value",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, ok := config.LookupKey(args[0]); !ok {
				return fmt.Errorf("unknown config key: %s", args[0])
			}
			resolved := a.resolver().Resolve(a.flags)
			a.printf("%s\n", resolved.Display(args[0]))
			return nil
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a value in the project or global config",
		Long: `Set writes KEY to .resumeflow.yaml in the project root, or with --global to
~/.config/resumeflow/config.yaml. Secrets such as API keys and tokens can only
be stored globally.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			r := a.resolver()
			save, where := r.SaveLocal, r.LocalPath()
			if global {
				save, where = r.SaveGlobal, r.GlobalPath()
			}
			if err := save(args[0], args[1]); err != nil {
				return err
			}
			if where == "" {
				where = config.LocalConfigName
			}
			a.printf("Set %s in %s\n", args[0], where)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Write to the global config")
	return cmd
}

func newConfigUnsetCmd(a *app) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a value from the project or global config",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			r := a.resolver()
			path := r.LocalPath()
			if global {
				path = r.GlobalPath()
			}
			if path == "" {
				return fmt.Errorf("no config file to edit")
			}
			if err := config.Unset(path, args[0]); err != nil {
				return err
			}
			a.printf("Unset %s in %s\n", args[0], path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Edit the global config")
	return cmd
}

func newConfigKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every config key with its default and environment variable",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tDEFAULT\tENV\tDESCRIPTION")
			for _, k := range config.Keys() {
				def := k.Default
				if k.Secret {
					def = "(secret)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Name, def, config.EnvName(k.Name), k.Description)
			}
			return tw.Flush()
		},
	}
}
