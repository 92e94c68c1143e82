package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tutor/internal/domain"
)

var (
	summarizeWorkers int
	summarizeJSON    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file...]",
	Short: "Summarize documents",
	Long: `Extracts each file and prints its overview, key points, topics and reading
statistics. Files are processed in parallel.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeWorkers, "workers", "w", 4, "number of files processed at once")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output summaries as JSON")
	rootCmd.AddCommand(summarizeCmd)
}

type summarized struct {
	Path     string           `json:"path"`
	Document *domain.Document `json:"document,omitempty"`
	Summary  *domain.Summary  `json:"summary,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]summarized, len(args))
	bar := newProgressBar(cmd.ErrOrStderr(), len(args), "Summarizing")

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(1, summarizeWorkers))
	for i, path := range args {
		g.Go(func() error {
			defer bar.Add(1)
			doc, sum, err := a.submitFile(ctx, path)
			results[i] = summarized{Path: path, Document: doc, Summary: sum}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	_ = bar.Finish()

	if summarizeJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summaries: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		for _, r := range results {
			printSummary(cmd.OutOrStdout(), r)
		}
	}

	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("%s: %s", r.Path, r.Error)
		}
	}
	return nil
}

func printSummary(w io.Writer, r summarized) {
	title := color.New(color.Bold, color.FgCyan)
	title.Fprintln(w, r.Path)
	if r.Error != "" {
		color.New(color.FgRed).Fprintf(w, "  failed: %s\n\n", r.Error)
		return
	}
	d, s := r.Document, r.Summary
	fmt.Fprintf(w, "  %d words, %d min read, %s, extracted via %s (quality %.2f)\n",
		s.WordCount, s.ReadingMinutes, s.Difficulty, d.Method, d.Quality)
	if d.LowConfidence {
		color.New(color.FgYellow).Fprintln(w, "  low extraction confidence")
	}
	if len(s.Topics) > 0 {
		fmt.Fprintf(w, "  Topics: %s\n", strings.Join(s.Topics, ", "))
	}
	if s.Overview != "" {
		fmt.Fprintf(w, "\n  %s\n", s.Overview)
	}
	for _, p := range s.KeyPoints {
		fmt.Fprintf(w, "  • %s\n", p)
	}
	fmt.Fprintln(w)
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}
