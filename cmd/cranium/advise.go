package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cranium/internal/advisory"
	"github.com/jonathan/cranium/internal/llm"
	"github.com/jonathan/cranium/internal/types"
)

var (
	adviseProfile string
	adviseUserID  string
	adviseChoose  []string
	adviseFocus   string
	adviseDryRun  bool
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Run one advisory evaluation for a chosen set",
	Long: `Place the --choose items into the chosen container and ask the advisor
about --focus (default: the last chosen item). The parsed advice is printed
as JSON. With --dry-run the request context is printed instead and no
model is called.`,
	RunE: runAdvise,
}

// adviceOutput is the printed result of one evaluation.
type adviceOutput struct {
	Kind    string       `json:"kind"`
	Advice  types.Advice `json:"advice"`
	Message string       `json:"message"`
}

func init() {
	adviseCmd.Flags().StringVarP(&adviseProfile, "profile", "p", "", "Path to profile JSON file")
	adviseCmd.Flags().StringVar(&adviseUserID, "user-id", "", "Load the profile of this stored user")
	adviseCmd.Flags().StringSliceVar(&adviseChoose, "choose", nil, "Item ids to place in the chosen container, in order")
	adviseCmd.Flags().StringVar(&adviseFocus, "focus", "", "Item the advice is about")
	adviseCmd.Flags().BoolVar(&adviseDryRun, "dry-run", false, "Print the request instead of calling the model")

	adviseCmd.MarkFlagsMutuallyExclusive("profile", "user-id")
	adviseCmd.MarkFlagsOneRequired("profile", "user-id")
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger(cfg)

	focus := adviseFocus
	if focus == "" {
		if len(adviseChoose) == 0 {
			return fmt.Errorf("--focus or --choose is required")
		}
		focus = adviseChoose[len(adviseChoose)-1]
	}

	printer := verbosePrinter(cmd, cfg)
	ws, err := seedWorkspace(ctx, cfg, logger, printer, nil, adviseProfile, adviseUserID, adviseChoose)
	if err != nil {
		return err
	}
	defer ws.Close()

	req, err := ws.AdviceRequest(focus)
	if err != nil {
		return err
	}
	if printer != nil {
		printer.PrintAdviceRequest(req)
	}
	if adviseDryRun {
		return writeJSON(cmd.OutOrStdout(), "", req)
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required (use --dry-run to inspect the request)")
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	evaluator := advisory.NewEvaluator(advisory.NewLLMAdvisor(client), cfg.MaxAttempts, logger)
	advice, err := evaluator.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("advisory evaluation failed: %w", err)
	}

	if printer != nil {
		printer.PrintAdvice(advice)
	}

	out := adviceOutput{Advice: advice, Message: advice.AlertMessage()}
	switch advice.(type) {
	case *types.Suggestion:
		out.Kind = "suggestion"
	case *types.Coaching:
		out.Kind = "coaching"
	}
	return writeJSON(cmd.OutOrStdout(), "", out)
}
