package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harunnryd/apprentice/internal/rag"

	"github.com/spf13/cobra"
)

const indexLockTimeout = 3 * time.Second

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Manage the local embedding index",
	Long:  `Index files into a local vector store at rag.path and query it. The dialogue does not read the index.`,
}

var ragIndexCmd = &cobra.Command{
	Use:   "index <files...>",
	Short: "Embed and store files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex(cmd)
		if err != nil {
			return err
		}
		defer idx.Close()

		out := cmd.OutOrStdout()
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			docs, err := idx.Add(cmd.Context(), path, string(data))
			if err != nil {
				return fmt.Errorf("failed to index %s: %w", path, err)
			}
			fmt.Fprintf(out, "Indexed %s: %d chunk(s)\n", path, len(docs))
		}

		fmt.Fprintf(out, "\nTotal: %d chunk(s) in %s\n", idx.Count(), cfg.RAG.Path)
		return nil
	},
}

var ragQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find the chunks most similar to a text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("limit must be greater than zero")
		}

		idx, err := openIndex(cmd)
		if err != nil {
			return err
		}
		defer idx.Close()

		results, err := idx.Query(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "Index is empty. Add files with 'apprentice rag index'.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "%.4f  %s\n%s\n\n", r.Similarity, r.Source, r.Content)
		}
		return nil
	},
}

var ragStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex(cmd)
		if err != nil {
			return err
		}
		defer idx.Close()

		m := idx.Manifest()
		out := cmd.OutOrStdout()
		if len(m.Documents) == 0 {
			fmt.Fprintln(out, "No documents indexed.")
			return nil
		}

		fmt.Fprintf(out, "Model: %s (%d dimensions)\n\n", m.Model, m.Dimensions)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tCHUNK\tRUNES\tADDED")
		for _, d := range m.Documents {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", d.ID, d.Source, d.Chunk, d.Runes, d.AddedAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		fmt.Fprintf(out, "\nTotal: %d chunk(s)\n", len(m.Documents))
		return nil
	},
}

func openIndex(cmd *cobra.Command) (*rag.Index, error) {
	embedder, err := newEmbedder(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), indexLockTimeout)
	defer cancel()
	return rag.Open(ctx, cfg.RAG.Path, embedder)
}

func init() {
	ragQueryCmd.Flags().IntP("limit", "l", 5, "Maximum number of results")

	ragCmd.AddCommand(ragIndexCmd)
	ragCmd.AddCommand(ragQueryCmd)
	ragCmd.AddCommand(ragStatusCmd)
	rootCmd.AddCommand(ragCmd)
}
