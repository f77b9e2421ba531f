package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/rag"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed <text>",
	Short: "Print the embedding of a text",
	Long:  `Embed the arguments, joined by spaces, with the configured embedding provider and print the vector as JSON.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		embedder, err := newEmbedder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		vec, err := embedder.Embed(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(vec)
	},
}

func newEmbedder(ctx context.Context, c *config.Config) (rag.Embedder, error) {
	return rag.NewEmbedder(ctx, rag.EmbedderOptions{
		Provider: c.EmbeddingProvider(),
		APIKey:   c.EmbeddingAPIKey(),
		Model:    c.RAG.EmbeddingModel,
	})
}

func init() {
	rootCmd.AddCommand(embedCmd)
}
