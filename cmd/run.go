package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/interview"
	"github.com/hyerim-cho/techterview/internal/logger"
)

const (
	PromptContinue    = "Continue"
	PromptShowVerdict = "Show full verdict"
	PromptQuit        = "Quit"
)

var errExit = errors.New("exit requested")

var turnPrompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptContinue, PromptShowVerdict, PromptQuit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive interview session in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session-id", "", "use a fixed session id instead of a generated one")

	viper.BindPFlag("session-id", runCmd.Flags().Lookup("session-id"))
}

// run drives one interview session from the terminal: present a question,
// collect the answer, grade it, and keep going until the bank is exhausted or
// the operator quits.
func run(_ *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	zlog.Info("starting techterview", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zlog.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	conductor, cleanup, err := newConductor(ctx, config, zlog)
	if err != nil {
		zlog.Fatal("building interview conductor", zap.Error(err))
	}
	defer cleanup()

	sess, err := conductor.StartSession(ctx, viper.GetString("session-id"), nil)
	if err != nil {
		zlog.Fatal("starting session", zap.Error(err))
	}

	fmt.Printf("\nSession %s started.\n", sess.ID)

	current := sess.CurrentQuestion
	for {
		fmt.Printf("\n[%s] %s\n", current.ID, current.Prompt)

		answerPrompt := promptui.Prompt{Label: "Your answer"}
		answer, err := answerPrompt.Run()
		if err != nil {
			zlog.Fatal("exiting", zap.Error(err))
		}

		result, err := conductor.SubmitAnswer(ctx, sess.ID, answer)
		if err != nil {
			zlog.Error("grading the answer failed; the question stands, try again", zap.Error(err))
			continue
		}

		printVerdictSummary(result)

		if result.Ended {
			fmt.Printf("\nInterview finished: %s. Asked %d bank questions.\n",
				result.EndReason, len(sess.AskedQuestionIDs))
			return
		}

		current = result.NextQuestion

		if err := confirmNextTurn(result); err != nil {
			if errors.Is(err, errExit) {
				zlog.Info("exiting", zap.String("reason", "got quit from prompt"))
				return
			}
			zlog.Fatal("exiting", zap.Error(err))
		}
	}
}

// confirmNextTurn lets the operator inspect the verdict or leave between turns.
func confirmNextTurn(result *interview.TurnResult) error {
	for {
		_, action, err := turnPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptContinue:
			return nil
		case PromptShowVerdict:
			pretty, _ := json.MarshalIndent(result.Verdict, "", "  ")
			fmt.Println(string(pretty))
		case PromptQuit:
			return errExit
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func printVerdictSummary(result *interview.TurnResult) {
	v := result.Verdict

	score := "n/a"
	if v.Score != nil {
		score = fmt.Sprintf("%d", *v.Score)
	}

	fmt.Printf("\nScore: %s (pass threshold %d, passed: %t)\n", score, v.PassThreshold, v.Passed)
	if v.Feedback != "" {
		fmt.Printf("Feedback: %s\n", v.Feedback)
	}
	if len(v.MissingPoints) > 0 {
		fmt.Printf("Missing points: %s\n", strings.Join(v.MissingPoints, "; "))
	}
	if result.Route == interview.RouteFollowUp && result.NextQuestion != nil {
		fmt.Println("A follow-up question is coming next.")
	}
}
