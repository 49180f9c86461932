package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/neculai-stanciu/jvc/internal/alias"
	"github.com/neculai-stanciu/jvc/internal/env"
	"github.com/neculai-stanciu/jvc/internal/platform"
	"github.com/neculai-stanciu/jvc/internal/version"
	"github.com/neculai-stanciu/jvc/pkg/models"
)

const listRule = "####################################"

func (a *App) listCommand() *cobra.Command {
	var remoteOnly bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed versions, or remote ones with --remote",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remoteOnly {
				return a.listRemote(cmd)
			}
			return a.listLocal()
		},
	}
	cmd.Flags().BoolVarP(&remoteOnly, "remote", "r", false, "list versions offered by the provider")
	a.addRequirementFlags(cmd)
	return cmd
}

func (a *App) listRemote(cmd *cobra.Command) error {
	client, err := a.client(nil)
	if err != nil {
		return err
	}
	entries, err := version.NewLister(client, a.store, a.aliases).RemoteVersions(cmd.Context(), a.cfg.Requirements)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, listRule)
	fmt.Fprintf(a.out, "Versions available from %s\n", a.cfg.Provider)
	fmt.Fprintln(a.out, listRule)
	for _, e := range entries {
		fmt.Fprintln(a.out, version.FormatRemoteEntry(e))
	}
	fmt.Fprintln(a.out, listRule)
	fmt.Fprintln(a.out, color.BlueString("All versions marked with * are LTS versions"))
	return nil
}

func (a *App) listLocal() error {
	entries, err := version.NewLister(nil, a.store, a.aliases).LocalVersions()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No versions installed, try `jvc install <n>`")
	}
	for _, e := range entries {
		fmt.Fprintln(a.out, version.FormatLocalEntry(e))
	}

	all, err := a.aliases.List()
	if err != nil {
		return err
	}
	for _, al := range all {
		if al.State == alias.Dangling {
			a.warnf("alias %s points to a missing version (%s)", al.Name, al.Target)
		}
	}
	return nil
}

func (a *App) installCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install <n>",
		Aliases: []string{"i"},
		Short:   "Download and install a major Java version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := models.ParseVersionNumber(args[0])
			if err != nil {
				return err
			}
			if info := platform.Detect(); !info.Supported(a.cfg.Provider) {
				a.warnf("%s/%s may not be offered by %s", info.OS, info.Arch, a.cfg.Provider)
			}

			download := a.progress("download")
			client, err := a.client(download)
			if err != nil {
				return err
			}
			extract := a.progress("extract ")
			opts := []version.InstallerOption{
				version.WithLogger(loggerFromContext(cmd.Context())),
				version.WithDownloadedFunc(download.Done),
			}
			if extract != nil {
				opts = append(opts, version.WithExtractProgress(extract.Update))
			}

			installed, err := version.NewInstaller(a.store, client, opts...).Install(cmd.Context(), n, a.cfg.Requirements)
			download.Done()
			extract.Done()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Installed %s at %s\n", installed.Name, installed.Path)
			return nil
		},
	}
	a.addRequirementFlags(cmd)
	return cmd
}

func (a *App) removeCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "remove <n>",
		Aliases: []string{"rm"},
		Short:   "Remove an installed major version",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := models.ParseVersionNumber(args[0])
			if err != nil {
				return err
			}
			removed, err := version.NewRemover(a.store, a.aliases, loggerFromContext(cmd.Context())).Remove(n, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", removed.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove even if it is the default version")
	return cmd
}

func (a *App) aliasCommand() *cobra.Command {
	var del bool
	cmd := &cobra.Command{
		Use:   "alias <version-or-alias> <name> | alias --delete <name>",
		Short: "Create, update or delete an alias",
		Args: func(cmd *cobra.Command, args []string) error {
			if del {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if del {
				if err := a.aliases.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted alias %s\n", args[0])
				return nil
			}
			created, err := a.aliases.CreateOrUpdate(args[1], args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s -> %s\n", created.Name, describeTarget(created))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&del, "delete", "d", false, "delete the named alias")
	return cmd
}

func (a *App) defaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default <version-or-alias>",
		Short: "Make a version the default one",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			created, err := version.NewSwitcher(a.aliases).UseVersion(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Default is now %s\n", describeTarget(created))
			return nil
		},
	}
}

func (a *App) envCommand() *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the shell script that puts the default version on PATH",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			mgr := env.NewManager(a.store, a.cfg)
			name, err := a.shellName(mgr, shell)
			if err != nil {
				return err
			}
			script, err := mgr.Script(name)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, script)
			return nil
		},
	}
	cmd.Flags().StringVarP(&shell, "shell", "s", "", "target shell: "+strings.Join(env.Shells(), ", "))
	return cmd
}

func (a *App) setupCommand() *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Add the jvc hook to the shell rc file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			mgr := env.NewManager(a.store, a.cfg)
			name, err := a.shellName(mgr, shell)
			if err != nil {
				return err
			}
			if err := a.store.EnsureLayout(); err != nil {
				return err
			}
			path, err := mgr.UpdateShellConfig(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated %s, restart the shell or source it to use jvc\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&shell, "shell", "s", "", "target shell: "+strings.Join(env.Shells(), ", "))
	return cmd
}

func (a *App) shellName(mgr *env.Manager, flagValue string) (string, error) {
	if flagValue != "" {
		return env.ParseShell(flagValue)
	}
	return mgr.DetectShell()
}

func describeTarget(al alias.Alias) string {
	if al.Version != nil {
		return al.Version.DiskName()
	}
	return al.Target
}
