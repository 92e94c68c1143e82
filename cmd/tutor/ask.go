package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tutor/internal/domain"
	"tutor/internal/qa"
)

var (
	askGrade string
	askVoice bool
)

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Ask one question about a document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askGrade, "grade", "g", "", "answer style: kid, teen or college")
	askCmd.Flags().BoolVar(&askVoice, "voice", false, "shape the answer for speech")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	doc, _, err := a.submitFile(ctx, args[0])
	if err != nil {
		return err
	}
	id, err := a.svc.NewSession(doc.ID)
	if err != nil {
		return err
	}
	defer a.svc.EndSession(id)
	if askGrade != "" {
		grade, err := qa.ParseGrade(askGrade)
		if err != nil {
			return err
		}
		if err := a.svc.SetGrade(id, grade); err != nil {
			return err
		}
	}

	channel := domain.ChannelText
	if askVoice {
		channel = domain.ChannelVoice
	}
	if _, err := a.svc.SubmitUtterance(ctx, id, "start", channel); err != nil {
		return err
	}
	reply, err := a.svc.SubmitUtterance(ctx, id, strings.Join(args[1:], " "), channel)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply.Text())
	if ans := reply.Answer; ans != nil && !ans.Fallback {
		note := fmt.Sprintf("confidence %.2f", ans.Confidence)
		if ans.MatchedSpan.SectionTitle != "" {
			note += ", section " + ans.MatchedSpan.SectionTitle
		}
		color.New(color.Faint).Fprintln(cmd.OutOrStdout(), note)
	}
	return nil
}
