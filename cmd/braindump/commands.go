package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"braindump/internal/commit"
	"braindump/internal/indexer"
	"braindump/internal/search"
	"braindump/internal/storage"
)

func (c *cli) newRebuildCmd() *cobra.Command {
	var noEmbeddings bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Clear the index and re-index every document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.index.RebuildIndex(ctx, a.index.EmbeddingsEnabled() && !noEmbeddings)
			if err != nil {
				return err
			}
			if res.Status == indexer.RebuildError {
				return fmt.Errorf("rebuild failed: %s", res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents (%d archived), %d todos, %d embeddings\n",
				res.DocumentsIndexed, res.ArchivedCount, res.TodosFound, res.EmbeddingsGenerated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noEmbeddings, "no-embeddings", false, "Skip embedding generation")
	return cmd
}

func (c *cli) newSearchCmd() *cobra.Command {
	var (
		limit           int
		includeArchived bool
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by meaning, falling back to title match",
		Example: `  braindump search "grocery list"
  braindump search release plan --limit 5 --include-archived`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			query := strings.Join(args, " ")
			results, method, err := a.ranker.SearchDocuments(ctx, query, limit, includeArchived)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, map[string]any{
					"query":   query,
					"method":  method,
					"results": results,
					"count":   len(results),
				})
			}
			printResults(out, results, method)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func printResults(w io.Writer, results []search.Result, method search.Method) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching documents")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		score := ""
		if method == search.MethodSemantic {
			score = fmt.Sprintf("%.3f", r.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, score, r.Title)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d results (%s)\n", len(results), method)
}

func (c *cli) newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.index.GetStats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, stats)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Documents\t%d\n", stats.Documents)
			fmt.Fprintf(tw, "Archived\t%d\n", stats.Archived)
			fmt.Fprintf(tw, "Open todos\t%d\n", stats.OpenTodos)
			fmt.Fprintf(tw, "Completed todos\t%d\n", stats.CompletedTodos)
			fmt.Fprintf(tw, "Open questions\t%d\n", stats.OpenQuestions)
			if a.index.EmbeddingsEnabled() {
				fmt.Fprintf(tw, "Embeddings\t%d/%d\n", stats.Embeddings, stats.Documents)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print counts as JSON")
	return cmd
}

func (c *cli) newTodosCmd() *cobra.Command {
	var (
		filter storage.ActionItemFilter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "todos",
		Short: "List TODO and TASK items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.index.ListActionItems(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, items)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, it := range items {
				box := "[ ]"
				if it.Done {
					box = "[x]"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s:%d\n", box, it.Kind, it.Text, it.Filename, it.LineNumber)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d items\n", len(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.IncludeDone, "all", false, "Include completed items")
	cmd.Flags().BoolVar(&filter.IncludeArchived, "include-archived", false, "Include items from archived documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as JSON")
	return cmd
}

func (c *cli) newQuestionsCmd() *cobra.Command {
	var (
		filter storage.QuestionFilter
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List open questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			questions, err := a.index.ListQuestions(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, questions)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, q := range questions {
				fmt.Fprintf(tw, "%s\t%s:%d\n", q.Text, q.Filename, q.LineNumber)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d questions\n", len(questions))
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.IncludeResolved, "all", false, "Include resolved questions")
	cmd.Flags().BoolVar(&filter.IncludeArchived, "include-archived", false, "Include questions from archived documents")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print questions as JSON")
	return cmd
}

func (c *cli) newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Commit every uncommitted document now",
		Long: `Commit every top-level document with uncommitted changes in one batch,
without waiting for the debounce window. Fails if the server holds the index lock;
use POST /api/commits/flush against a running server instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			if _, err := commit.MarkUncommitted(ctx, a.batcher, store); err != nil {
				return err
			}
			res, err := a.batcher.FlushAll(ctx, store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res == nil {
				fmt.Fprintln(out, "Nothing to commit")
				return nil
			}
			fmt.Fprintln(out, res.Message)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
