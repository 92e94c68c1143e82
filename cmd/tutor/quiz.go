package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tutor/internal/quiz"
)

var (
	quizQuestions int
	quizJSON      bool
)

var quizCmd = &cobra.Command{
	Use:   "quiz [file]",
	Short: "Quiz yourself on a document",
	Long: `Builds fill-in-the-blank and true/false questions from the document's key
points and vocabulary, reads one answer per line and reports the score.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().IntVarP(&quizQuestions, "questions", "n", quiz.DefaultQuestions, "number of questions")
	quizCmd.Flags().BoolVar(&quizJSON, "json", false, "print the quiz with answers as JSON instead of asking")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, sum, err := a.submitFile(context.Background(), args[0])
	if err != nil {
		return err
	}
	gen := quiz.NewGenerator(a.vocab, a.splitter)
	q, err := gen.Generate(*doc, *sum, quizQuestions)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if quizJSON {
		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal quiz: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "%d questions, about %d min\n\n", len(q.Questions), q.EstimatedMinutes)
	in := bufio.NewScanner(cmd.InOrStdin())
	var results []quiz.Result
	for i, question := range q.Questions {
		fmt.Fprintf(out, "%d. %s\n> ", i+1, question.Prompt)
		if !in.Scan() {
			fmt.Fprintln(out)
			break
		}
		r := gen.Evaluate(question, strings.TrimSpace(in.Text()))
		results = append(results, r)
		if r.Correct {
			color.New(color.FgGreen).Fprintln(out, "Correct!")
		} else {
			color.New(color.FgRed).Fprintf(out, "Not quite. The answer is %s.\n", r.Expected)
		}
		color.New(color.Faint).Fprintf(out, "  %s\n\n", r.Explanation)
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	fmt.Fprintf(out, "Score: %d/%d\n", quiz.Score(results), len(q.Questions))
	return nil
}
