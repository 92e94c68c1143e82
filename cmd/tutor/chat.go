package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tutor/internal/domain"
	"tutor/internal/qa"
	"tutor/internal/tui"
)

var chatGrade string

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Talk with the tutor about a document",
	Long: `Opens an interactive chat. Say "start" to begin, ask questions, say
"tell me more" to go deeper and "goodbye" to finish.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatGrade, "grade", "g", "", "answer style: kid, teen or college")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	docID, header := "", "No document loaded."
	if len(args) == 1 {
		doc, sum, err := a.submitFile(context.Background(), args[0])
		if err != nil {
			return err
		}
		docID = doc.ID
		header = fmt.Sprintf("%s · %d words · %s", doc.Filename, doc.WordCount, strings.Join(sum.Topics, ", "))
	}

	id, err := a.svc.NewSession(docID)
	if err != nil {
		return err
	}
	defer a.svc.EndSession(id)
	if chatGrade != "" {
		grade, err := qa.ParseGrade(chatGrade)
		if err != nil {
			return err
		}
		if err := a.svc.SetGrade(id, grade); err != nil {
			return err
		}
	}

	if _, err := tea.NewProgram(tui.New(a.svc, id, header), tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	stats, err := a.svc.Stats(id)
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(w io.Writer, st domain.StudyStats) {
	color.New(color.Bold, color.FgCyan).Fprintln(w, "Session summary")
	fmt.Fprintf(w, "  %d questions, %d follow-up expansions, %d unanswered\n", st.Questions, st.Expansions, st.Unanswered)
	if len(st.Topics) > 0 {
		fmt.Fprintf(w, "  Topics: %s\n", strings.Join(st.Topics, ", "))
	}
	if st.Questions > 0 {
		fmt.Fprintf(w, "  Average confidence: %.2f\n", st.AvgConfidence)
	}
	fmt.Fprintf(w, "  Time: %s\n", st.Duration.Round(time.Second))
}
