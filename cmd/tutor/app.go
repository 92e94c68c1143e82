package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tutor/internal/chunker"
	"tutor/internal/config"
	"tutor/internal/domain"
	"tutor/internal/extraction"
	"tutor/internal/qa"
	"tutor/internal/service"
	"tutor/internal/store"
	"tutor/internal/store/memory"
	"tutor/internal/store/sqlite"
	"tutor/internal/summarizer"
	"tutor/internal/vocabulary"
)

// app is the assembled core shared by every subcommand.
type app struct {
	svc      *service.TutorService
	store    store.Store
	vocab    *vocabulary.Index
	splitter *chunker.Splitter
}

func newApp(cfg *config.AppConfig) (*app, error) {
	vocab := vocabulary.Default()
	if cfg.Vocabulary.Path != "" {
		var err error
		if vocab, err = vocabulary.LoadFile(cfg.Vocabulary.Path); err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	grade, err := qa.ParseGrade(cfg.Conversation.Grade)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "sqlite":
		if st, err = sqlite.Open(cfg.Store.Path); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store.Type)
	}

	splitter := chunker.NewSplitter(0)
	pipeline := extraction.NewPipeline(vocab,
		extraction.WithThreshold(cfg.Extraction.Threshold),
		extraction.WithTimeout(time.Duration(cfg.Extraction.TimeoutSecs)*time.Second),
	)
	sum := summarizer.New(vocab, splitter,
		summarizer.WithOverviewSentences(cfg.Summarizer.OverviewSentences),
		summarizer.WithKeyPoints(cfg.Summarizer.KeyPointsMin, cfg.Summarizer.KeyPointsMax),
		summarizer.WithMaxTopics(cfg.Summarizer.MaxTopics),
	)
	matcher := qa.NewMatcher(vocab, splitter,
		qa.WithMinRelevance(cfg.QA.MinRelevance),
		qa.WithHeadingBoost(cfg.QA.HeadingBoost),
	)
	svc := service.NewTutorService(pipeline, splitter, sum, matcher, vocab, st, service.Settings{
		Grade:         grade,
		Window:        cfg.Conversation.Window,
		VoiceMaxChars: cfg.Conversation.VoiceMaxChars,
	})
	return &app{svc: svc, store: st, vocab: vocab, splitter: splitter}, nil
}

func (a *app) Close() error { return a.store.Close() }

// submitFile reads path and hands it to the service.
func (a *app) submitFile(ctx context.Context, path string) (*domain.Document, *domain.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return a.svc.SubmitDocument(ctx, data, filepath.Base(path))
}
