package extraction

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"tutor/internal/domain"
	"tutor/internal/logger"
	"tutor/internal/vocabulary"
)

const (
	DefaultThreshold = 0.6
	DefaultTimeout   = 30 * time.Second
)

// Attempt describes one strategy run.
type Attempt struct {
	Strategy string
	Quality  float64
	Chars    int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a pipeline run. Quality is the highest score
// among the attempts made.
type Result struct {
	Text          string
	Method        string
	Quality       float64
	LowConfidence bool
	Errors        []domain.ExtractionError
	Attempts      []Attempt
}

// Pipeline runs strategies in order and accepts the first result whose
// quality reaches the threshold.
type Pipeline struct {
	strategies []Strategy
	scorer     Scorer
	threshold  float64
	timeout    time.Duration
}

type Option func(*Pipeline)

func WithStrategies(s ...Strategy) Option {
	return func(p *Pipeline) { p.strategies = s }
}

func WithScorer(s Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.scorer = s
		}
	}
}

func WithThreshold(t float64) Option {
	return func(p *Pipeline) {
		if t >= 0 && t <= 1 {
			p.threshold = t
		}
	}
}

// WithTimeout bounds each strategy run.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPipeline(vocab *vocabulary.Index, opts ...Option) *Pipeline {
	p := &Pipeline{
		strategies: DefaultStrategies(nil),
		scorer:     NewQualityScorer(vocab, DefaultTargetLength),
		threshold:  DefaultThreshold,
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Extract converts data to text. Strategy failures are collected in
// Result.Errors; the call fails only for an empty payload, a cancelled
// context, or when no strategy produced any text.
func (p *Pipeline) Extract(ctx context.Context, data []byte) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyPayload
	}
	logger.Section("Extraction")

	res := &Result{}
	var best *Attempt
	var bestText string
	for _, st := range p.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		text, err := p.run(ctx, st, data)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		attempt := Attempt{Strategy: st.Name(), Duration: time.Since(start)}
		if err == nil {
			text = Clean(text)
			if text == "" {
				err = ErrNoText
			}
		}
		if err != nil {
			attempt.Err = err
			res.Attempts = append(res.Attempts, attempt)
			res.Errors = append(res.Errors, domain.ExtractionError{Strategy: st.Name(), Cause: err})
			logger.Debug("strategy %s failed: %v", st.Name(), err)
			continue
		}

		attempt.Chars = len([]rune(text))
		attempt.Quality = p.scorer.Score(text)
		res.Attempts = append(res.Attempts, attempt)
		logger.Debug("strategy %s: %d chars, quality %.2f", st.Name(), attempt.Chars, attempt.Quality)

		if best == nil || attempt.Quality > best.Quality {
			a := attempt
			best, bestText = &a, text
		}
		if attempt.Quality >= p.threshold {
			logger.Info("accepted %s (quality %.2f)", st.Name(), attempt.Quality)
			res.Text, res.Method, res.Quality = text, st.Name(), attempt.Quality
			return res, nil
		}
	}

	if best == nil {
		return nil, &domain.ExtractionFailed{Attempts: res.Errors}
	}
	logger.Warn("no strategy reached %.2f, using %s (quality %.2f)", p.threshold, best.Strategy, best.Quality)
	res.Text, res.Method, res.Quality = bestText, best.Strategy, best.Quality
	res.LowConfidence = true
	return res, nil
}

// run executes one strategy under the per-strategy budget. A strategy that
// ignores its context is abandoned when the budget runs out; its goroutine
// finishes in the background and its result is discarded.
func (p *Pipeline) run(ctx context.Context, st Strategy, data []byte) (string, error) {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := st.Extract(sctx, data)
		done <- outcome{text: text, err: err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-sctx.Done():
		return "", fmt.Errorf("abandoned after %s: %w", p.timeout, sctx.Err())
	}
}
