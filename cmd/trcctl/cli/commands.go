package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/trc-platform/trc/entry"
	"github.com/trc-platform/trc/platform"
	"github.com/trc-platform/trc/repository"
	"github.com/trc-platform/trc/search/solr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of all entry types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				if err := p.CreateSchemas(ctx); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created schemas for %d entry types\n", len(p.Collections()))

				return nil
			})
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [type] [id]",
		Short: "Print an entry as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				c, err := p.Collection(args[0])
				if err != nil {
					return err
				}

				e, err := c.Get(ctx, args[1])
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), e)
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [type]",
		Short: "Print entries of a type as JSON, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				c, err := p.Collection(args[0])
				if err != nil {
					return err
				}

				entries, err := c.List(ctx, repository.Page{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}

	cmd.Flags().Int("limit", 50, "maximum number of entries, 0 lists all")
	cmd.Flags().Int("offset", 0, "number of entries to skip")

	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [type] [id]",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				c, err := p.Collection(args[0])
				if err != nil {
					return err
				}

				if err := c.Delete(ctx, args[1]); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", entry.NewID(args[0], args[1]))

				return nil
			})
		},
	}
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [token|uri]",
		Short: "Print the entry an entry token or URI points to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				id, err := parseEntryRef(p, args[0])
				if err != nil {
					return err
				}

				c, err := p.Collection(id.Type)
				if err != nil {
					return err
				}

				e, err := c.Get(ctx, id.ID)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), e)
			})
		},
	}
}

// parseEntryRef accepts entry URIs and entry tokens.
func parseEntryRef(p *platform.Platform, ref string) (entry.ID, error) {
	if strings.Contains(ref, "://") {
		return p.Registry().IDFromURI(ref)
	}

	return entry.ParseToken(ref)
}

func (a *app) reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [type...]",
		Short: "Push all entries of the given types, or of all types, to the search cores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				counts, err := p.Reindex(ctx, args...)

				types := make([]string, 0, len(counts))
				for entryType := range counts {
					types = append(types, entryType)
				}
				slices.Sort(types)

				for _, entryType := range types {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", entryType, counts[entryType])
				}

				return err
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [type] [query]",
		Short: "Query the search core of an entry type",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := solr.Query{}
			if len(args) == 2 {
				q.Q = args[1]
			}

			q.Filters, _ = cmd.Flags().GetStringArray("filter")
			q.Fields, _ = cmd.Flags().GetStringSlice("fields")
			q.Start, _ = cmd.Flags().GetInt("start")
			q.Rows, _ = cmd.Flags().GetInt("rows")
			q.Sort, _ = cmd.Flags().GetString("sort")

			return a.withPlatform(cmd, func(ctx context.Context, p *platform.Platform) error {
				result, err := p.Search(ctx, args[0], q)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringArray("filter", nil, "filter query, may be repeated")
	cmd.Flags().StringSlice("fields", nil, "fields to return")
	cmd.Flags().Int("start", 0, "offset of the first result")
	cmd.Flags().Int("rows", 10, "number of results")
	cmd.Flags().String("sort", "", "sort clause, e.g. \"modified desc\"")

	return cmd
}

func printJSON(w io.Writer, value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(out))

	return err
}
