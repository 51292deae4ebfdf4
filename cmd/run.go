package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/internal/agent"
	"github.com/xkilldash9x/jobfill/internal/observability"
)

// newRunCmd creates and configures the `run` command: a single agent run
// from the command line, printing the audit trail and proposed answers.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the application agent once for a job description",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind only explicitly set flags so unset zero defaults do not
			// shadow config file and env values.
			if cmd.Flags().Changed("max-steps") {
				if err := viper.BindPFlag("agent.max_steps", cmd.Flags().Lookup("max-steps")); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("min-fit") {
				if err := viper.BindPFlag("agent.min_fit_score", cmd.Flags().Lookup("min-fit")); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			userID, _ := cmd.Flags().GetString("user")
			goal, _ := cmd.Flags().GetString("goal")
			jd, _ := cmd.Flags().GetString("jd")
			jdFile, _ := cmd.Flags().GetString("jd-file")
			pageURL, _ := cmd.Flags().GetString("page-url")
			htmlFile, _ := cmd.Flags().GetString("html-file")
			inputPairs, _ := cmd.Flags().GetStringSlice("input")

			if jdFile != "" {
				data, err := os.ReadFile(jdFile)
				if err != nil {
					return fmt.Errorf("failed to read job description file: %w", err)
				}
				jd = string(data)
			}
			if jd == "" {
				return fmt.Errorf("a job description is required (--jd or --jd-file)")
			}

			var pageHTML string
			if htmlFile != "" {
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					return fmt.Errorf("failed to read page HTML file: %w", err)
				}
				pageHTML = string(data)
			}

			userInputs := make(map[string]string)
			for _, pair := range inputPairs {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("invalid --input %q, expected key=value", pair)
				}
				userInputs[key] = value
			}

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			logger.Info("Starting agent run",
				zap.String("user_id", userID),
				zap.Int("jd_length", len(jd)),
				zap.String("page_url", pageURL))

			result, err := components.Orchestrator.Run(ctx, agent.RunInput{
				UserID:         userID,
				Goal:           goal,
				JobDescription: jd,
				PageURL:        pageURL,
				PageHTML:       pageHTML,
				UserInputs:     userInputs,
			})
			if err != nil {
				return fmt.Errorf("agent run failed: %w", err)
			}

			out := map[string]any{
				"status":           result.Status,
				"run_id":           result.RunID,
				"steps":            result.Steps,
				"proposed_answers": result.ProposedAnswers,
				"missing_fields":   result.Meta.MissingFields,
				"next_questions":   result.Meta.NextQuestions,
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	runCmd.Flags().StringP("user", "u", "default", "User ID the run belongs to")
	runCmd.Flags().StringP("goal", "g", "apply to job", "Goal handed to the agent")
	runCmd.Flags().String("jd", "", "Job description text")
	runCmd.Flags().String("jd-file", "", "Path to a file containing the job description")
	runCmd.Flags().String("page-url", "", "URL of the application page")
	runCmd.Flags().String("html-file", "", "Path to a file containing the application page HTML")
	runCmd.Flags().StringSlice("input", nil, "User-confirmed answer as key=value. Repeatable.")
	runCmd.Flags().Int("max-steps", 0, "Maximum loop steps. (Overrides config/env)")
	runCmd.Flags().Float64("min-fit", 0, "Minimum fit score to apply. (Overrides config/env)")

	return runCmd
}
