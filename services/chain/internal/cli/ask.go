package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bingehouse/internal/util"
	"bingehouse/services/chain/internal/app"
	"bingehouse/services/chain/internal/bootstrap"
	"bingehouse/services/chain/internal/config"
)

type askOptions struct {
	configPath     string
	userID         string
	conversationID string
	asJSON         bool
	showLogs       bool
}

func newAskCmd() *cobra.Command {
	opts := askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Run the full pipeline against the configured catalog and model",
		Long: `Send chat messages through the full pipeline with an in-memory store.
Without a query, messages are read one per line from stdin and share one
conversation.

Examples:
  chainctl ask "How is 28 Days Later"
  chainctl ask --user u1 --logs "Is Heat worth watching"
  chainctl ask --config services/chain/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			util.InitLogger(cfg.LogLevel)
			cfg.StoreDriver = config.StoreDriverMemory
			st, closeStore, err := bootstrap.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			core, err := bootstrap.NewApp(cfg, st)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = core.Close(ctx)
			}()

			if opts.conversationID == "" {
				opts.conversationID = util.NewID()
			}
			if len(args) > 0 {
				return askOnce(cmd.Context(), cmd.OutOrStdout(), core, strings.Join(args, " "), opts)
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout())
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := askOnce(cmd.Context(), cmd.OutOrStdout(), core, line, opts); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default $CHAIN_CONFIG or config.yaml)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "user id; empty asks as a guest")
	cmd.Flags().StringVar(&opts.conversationID, "conversation", "", "conversation id (default: a new one)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full response as JSON")
	cmd.Flags().BoolVar(&opts.showLogs, "logs", false, "print the pipeline trace")
	return cmd
}

func askOnce(ctx context.Context, out io.Writer, core *app.App, query string, opts askOptions) error {
	req := app.Request{Query: query, ConversationID: opts.conversationID}
	if opts.userID != "" {
		req.UserID = &opts.userID
	}
	resp, err := core.ProcessQuery(ctx, req)
	if err != nil {
		return err
	}
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	if resp.Movie != nil {
		fmt.Fprintf(out, "[%s (%s) rated %s, %s votes]\n", resp.Movie.Title, resp.Movie.Year, resp.Movie.Rating, resp.Movie.Votes)
	}
	fmt.Fprintln(out, resp.Message)
	if opts.showLogs {
		for _, line := range resp.Logs {
			fmt.Fprintf(out, "  · %s\n", line)
		}
	}
	fmt.Fprintf(out, "(turn %d, %d tokens)\n", resp.Conversation.TurnCount, resp.Conversation.TotalTokens)
	return nil
}
