package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/samvad-hq/neocities-go/internal/app"
	"github.com/samvad-hq/neocities-go/internal/manifest"
	"github.com/samvad-hq/neocities-go/pkg/neocities"
	"github.com/spf13/cobra"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "List files on the site",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			defer api.Close()

			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			listing, err := api.ListFiles(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, listing.Raw)
			}
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PATH\tSIZE\tUPDATED")
			fmt.Fprintln(w, "----\t----\t-------")
			for _, f := range listing.Files {
				size := fmt.Sprintf("%d", f.Size)
				if f.IsDirectory {
					size = "dir"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Path, size, f.UpdatedAt)
			}
			return w.Flush()
		},
	}
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local|remote=local>...",
		Short: "Upload files in a single request",
		Example: `  neocities upload index.html
  neocities upload blog/post.html=./build/post.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := parseUploadArgs(args)
			if err != nil {
				return err
			}

			p, err := app.NewPusher(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.Upload(cmd.Context(), files); err != nil {
				return err
			}
			return c.printNames(cmd, "uploaded", remoteNames(files))
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <remote>...",
		Short: "Delete files from the site",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.NewPusher(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.Delete(cmd.Context(), args); err != nil {
				return err
			}
			return c.printNames(cmd, "deleted", args)
		},
	}
}

func (c *cli) pushCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload manifest files whose content changed since the last push",
		Long: `Reads the manifest (manifest_file) and uploads new or changed files in one
request. With --watch, or a positive push_interval_seconds, it keeps pushing on
that interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.NewPusher(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer p.Close()

			if watch || c.cfg.PushInterval > 0 {
				return p.Run(cmd.Context())
			}

			res, err := p.PushOnce(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, res)
			}
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			for _, name := range res.Uploaded {
				fmt.Fprintf(w, "uploaded\t%s\n", name)
			}
			for _, name := range res.Skipped {
				fmt.Fprintf(w, "unchanged\t%s\n", name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep pushing every push_interval_seconds")
	return cmd
}

func (c *cli) printNames(cmd *cobra.Command, verb string, names []string) error {
	out := cmd.OutOrStdout()
	if c.jsonOutput {
		return writeJSON(out, map[string][]string{verb: names})
	}
	for _, n := range names {
		if _, err := fmt.Fprintf(out, "%s %s\n", verb, n); err != nil {
			return err
		}
	}
	return nil
}

// parseUploadArgs accepts "local" or "remote=local". A bare local path is uploaded
// under its slash-separated relative form.
func parseUploadArgs(args []string) ([]neocities.UploadFile, error) {
	files := make([]neocities.UploadFile, 0, len(args))
	for _, arg := range args {
		remote, local, ok := strings.Cut(arg, "=")
		if !ok {
			local = arg
			remote = filepath.ToSlash(arg)
		}
		if strings.TrimSpace(local) == "" {
			return nil, fmt.Errorf("upload %q: local path is empty", arg)
		}
		clean, err := manifest.CleanRemote(remote)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", arg, err)
		}
		files = append(files, neocities.UploadFile{Remote: clean, Local: local})
	}
	return files, nil
}

func remoteNames(files []neocities.UploadFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Remote)
	}
	return names
}
