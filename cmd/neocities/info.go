package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samvad-hq/neocities-go/internal/preview"
	"github.com/samvad-hq/neocities-go/pkg/httpclient"
	"github.com/spf13/cobra"
)

func (c *cli) infoCmd() *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "info [sitename]",
		Short: "Show site information",
		Example: `  neocities info
  neocities info mysite --field hits`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			defer api.Close()

			ctx := cmd.Context()
			site := c.sitename(args)
			out := cmd.OutOrStdout()

			if field != "" {
				var v any
				switch strings.ToLower(field) {
				case "hits":
					v = api.GetHits(ctx, site)
				case "views":
					v = api.GetViews(ctx, site)
				case "tags":
					v = api.GetTags(ctx, site).Sorted()
				case "created_at":
					v = api.GetCreatedAt(ctx, site).Format(time.DateOnly)
				default:
					return fmt.Errorf("unknown field %q (hits, views, tags, created_at)", field)
				}
				if c.jsonOutput {
					return writeJSON(out, v)
				}
				if tags, ok := v.([]string); ok {
					v = strings.Join(tags, ",")
				}
				_, err := fmt.Fprintln(out, v)
				return err
			}

			info, err := api.GetInfo(ctx, site)
			if err != nil {
				return fmt.Errorf("fetch info: %w", err)
			}
			if c.jsonOutput {
				return writeJSON(out, info.Raw)
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "SITENAME\t%s\n", info.Sitename)
			fmt.Fprintf(w, "HITS\t%d\n", info.Hits)
			fmt.Fprintf(w, "VIEWS\t%d\n", info.Views)
			fmt.Fprintf(w, "CREATED\t%s\n", info.CreatedAt.Format(time.DateOnly))
			fmt.Fprintf(w, "UPDATED\t%s\n", info.LastUpdated)
			fmt.Fprintf(w, "DOMAIN\t%s\n", info.Domain)
			fmt.Fprintf(w, "TAGS\t%s\n", strings.Join(info.Tags.Sorted(), ","))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "print a single field: hits, views, tags or created_at")
	return cmd
}

func (c *cli) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [sitename]",
		Short: "Show the public title, description and image of a site",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := c.fetcher().Fetch(cmd.Context(), c.sitename(args))
			if err != nil {
				return fmt.Errorf("fetch preview: %w", err)
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return writeJSON(out, meta)
			}
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "URL\t%s\n", meta.URL)
			fmt.Fprintf(w, "TITLE\t%s\n", meta.Title)
			fmt.Fprintf(w, "DESCRIPTION\t%s\n", meta.Description)
			fmt.Fprintf(w, "IMAGE\t%s\n", meta.ImageURL)
			return w.Flush()
		},
	}
}

func (c *cli) fetcher() *preview.Fetcher {
	client := httpclient.NewRestyClient(c.cfg.RequestTimeout).SetUserAgent(c.cfg.UserAgent)
	return preview.NewFetcher(client, c.cfg.SiteURLTemplate)
}
