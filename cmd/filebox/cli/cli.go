// Package cli implements the filebox command tree.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nuln/filebox"
	"github.com/nuln/filebox/manager"
)

// errFailed is returned when a facade answers with its failure sentinel.
// The reason has already been logged.
var errFailed = errors.New("operation failed")

type app struct {
	configPath  string
	rootName    string
	internalDir string
	externalDir string

	root filebox.StorageRoot
	m    *manager.Manager
}

// NewRootCommand builds the filebox command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "filebox",
		Short:        "Manage files in the internal and external storage roots",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, json, toml or env); environment only when empty")
	flags.StringVar(&a.rootName, "root", "internal", "storage root: internal, external or none")
	flags.StringVar(&a.internalDir, "internal-dir", "", "override the internal root directory")
	flags.StringVar(&a.externalDir, "external-dir", "", "override the external root directory")

	cmd.AddCommand(
		a.existsCommand(),
		a.checksumCommand(),
		a.base64Command(),
		a.copyCommand(),
		a.moveCommand(),
		a.writeCommand(),
		a.removeCommand(),
		a.touchCommand(),
		a.downloadCommand(),
		a.infoCommand(),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := filebox.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.internalDir != "" {
		cfg.InternalDir = a.internalDir
	}
	if a.externalDir != "" {
		cfg.ExternalDir = a.externalDir
	}

	if a.root, err = filebox.ParseStorageRoot(a.rootName); err != nil {
		return err
	}
	a.m, err = manager.New(cfg)
	return err
}

func (a *app) existsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists PATH",
		Short: "Report whether PATH exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.m.Local.Exists(args[0], a.root))
			return err
		},
	}
}

func (a *app) checksumCommand() *cobra.Command {
	var algorithm string
	cmd := &cobra.Command{
		Use:     "md5 PATH",
		Aliases: []string{"checksum"},
		Short:   "Print the checksum of PATH",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printString(cmd.OutOrStdout(), a.m.Local.FileChecksum(args[0], a.root, algorithm))
		},
	}
	cmd.Flags().StringVar(&algorithm, "alg", "md5", "digest: md5, sha1 or sha256")
	return cmd
}

func (a *app) base64Command() *cobra.Command {
	return &cobra.Command{
		Use:   "base64 PATH",
		Short: "Print the base64 encoding of PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printString(cmd.OutOrStdout(), a.m.Local.FileBase64(args[0], a.root))
		},
	}
}

func (a *app) copyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cp SRC DST",
		Short: "Copy the absolute path SRC to DST under the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printString(cmd.OutOrStdout(), a.m.Local.SaveTo(args[0], args[1], a.root))
		},
	}
}

func (a *app) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv SRC DST",
		Short: "Move the absolute path SRC to DST under the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printString(cmd.OutOrStdout(), a.m.Local.MoveTo(args[0], args[1], a.root))
		},
	}
}

func (a *app) writeCommand() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "write SRC DST",
		Short: "Append (or with --overwrite, replace) DST with the content of SRC",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.m.Local.WriteTo(args[0], args[1], a.root, overwrite) {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "truncate DST first")
	return cmd
}

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH",
		Short: "Delete PATH, recursively for directories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.m.Local.DeleteFile(args[0], a.root)
			return nil
		},
	}
}

func (a *app) touchCommand() *cobra.Command {
	var (
		data string
		temp bool
	)
	cmd := &cobra.Command{
		Use:   "touch [PATH]",
		Short: "Create PATH, optionally writing --data; a random name is used without PATH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			var content []byte
			if cmd.Flags().Changed("data") {
				content = []byte(data)
			}
			entry := a.m.Local.CreateFile(path, content, a.root, temp)
			if entry == nil {
				return errFailed
			}
			return printString(cmd.OutOrStdout(), entry.Path)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "content to write")
	cmd.Flags().BoolVar(&temp, "temp", false, "create a uniquely named file next to PATH")
	return cmd
}

func (a *app) downloadCommand() *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "download URI PATH",
		Short: "Download URI into PATH under the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fn filebox.ProgressFunc
			if progress {
				errOut := cmd.ErrOrStderr()
				fn = func(copied, total int64) {
					if total < 0 {
						_, _ = fmt.Fprintf(errOut, "\r%d bytes", copied)
						return
					}
					_, _ = fmt.Fprintf(errOut, "\r%d/%d bytes", copied, total)
				}
			}
			res, err := a.m.Remote.DownloadFile(cmd.Context(), args[0], args[1], a.root, fn)
			if progress {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			if res == nil {
				return errFailed
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "report progress on stderr")
	return cmd
}

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info URI",
		Short: "Print the metadata of URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.m.Remote.RemoteFileInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if info == nil {
				return errFailed
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func printString(w io.Writer, s string) error {
	if s == "" {
		return errFailed
	}
	_, err := fmt.Fprintln(w, s)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
