package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bingehouse/pkg/domain"
	"bingehouse/services/chain/internal/classify"
	"bingehouse/services/chain/internal/resolve"
)

// memoryFrom builds conversation memory holding the given titles, oldest first.
func memoryFrom(discussed []string) *domain.ConversationMemory {
	mem := domain.NewConversationMemory("chainctl")
	for _, title := range discussed {
		mem.RememberMovie(domain.DiscussedMovie{Title: title})
	}
	return mem
}

func newClassifyCmd() *cobra.Command {
	var discussed []string
	cmd := &cobra.Command{
		Use:   "classify <query>",
		Short: "Show how a chat message is classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			res := classify.Classify(query, memoryFrom(discussed))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kind:    %s\n", res.Kind)
			fmt.Fprintf(out, "general: %t\n", res.General)
			fmt.Fprintf(out, "rule:    %s\n", res.Rule)
			if res.Similar {
				fmt.Fprintln(out, "similar: true")
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&discussed, "last", nil, "previously discussed title (repeatable, oldest first)")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var discussed []string
	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Show which title a chat message resolves to without calling a model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			res := resolve.New(nil).Resolve(cmd.Context(), query, memoryFrom(discussed))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "strategy: %s\n", res.Strategy)
			if res.Category != "" {
				fmt.Fprintf(out, "category: %s\n", res.Category)
			}
			if res.Suppressed {
				fmt.Fprintln(out, "suppressed: true")
			}
			if len(res.Titles) == 0 {
				fmt.Fprintln(out, "titles:   (none)")
				return nil
			}
			fmt.Fprintf(out, "titles:   %s\n", strings.Join(res.Titles, ", "))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&discussed, "last", nil, "previously discussed title (repeatable, oldest first)")
	return cmd
}
