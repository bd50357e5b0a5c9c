package research

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/internal/telemetry"
	"github.com/mohammad-safakhou/medisearch/models"
	"github.com/mohammad-safakhou/medisearch/session"
)

// ExchangeLogger persists finished exchanges to durable storage. Optional:
// a nil logger disables persistence.
type ExchangeLogger interface {
	SaveExchange(ctx context.Context, sessionID, message, response string) error
}

// Service runs the full answer pipeline: classify, aggregate, synthesize,
// record. Stateless between requests apart from the session store.
type Service struct {
	classifier    *Classifier
	aggregator    *Aggregator
	synthesizer   *Synthesizer
	sessions      session.Store
	chatLog       ExchangeLogger
	metrics       *telemetry.Metrics
	historyBudget int
	sem           chan struct{}
	logger        *log.Logger
}

// NewService assembles the pipeline. chatLog and metrics may be nil.
func NewService(
	cfg config.Config,
	classifier *Classifier,
	aggregator *Aggregator,
	synthesizer *Synthesizer,
	sessions session.Store,
	chatLog ExchangeLogger,
	metrics *telemetry.Metrics,
	logger *log.Logger,
) *Service {
	limit := cfg.General.MaxConcurrent
	if limit <= 0 {
		limit = 16
	}
	svc := &Service{
		classifier:    classifier,
		aggregator:    aggregator,
		synthesizer:   synthesizer,
		sessions:      sessions,
		chatLog:       chatLog,
		metrics:       metrics,
		historyBudget: cfg.General.HistoryBudget,
		sem:           make(chan struct{}, limit),
		logger:        logger,
	}
	aggregator.OnCall(func(source SourceID, elapsed time.Duration, failed bool) {
		metrics.RecordSourceCall(string(source), elapsed, failed)
	})
	classifier.OnCall(func(err error) {
		metrics.RecordLLMCall("classify", err)
	})
	return svc
}

// Answer processes one chat message and returns the assistant reply together
// with the effective session id. A panic anywhere in the pipeline is
// converted into an error at this boundary.
func (s *Service) Answer(ctx context.Context, sessionID, message string) (reply string, sid string, err error) {
	// Saturated pool: block until a worker frees up or the caller gives up.
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.metrics.RecordRequest("rejected")
		return "", "", fmt.Errorf("waiting for a worker: %w", ctx.Err())
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("[SERVICE] panic recovered: %v", r)
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			s.metrics.RecordRequest("error")
		} else {
			s.metrics.RecordRequest("success")
		}
	}()

	sid, err = s.sessions.Ensure(ctx, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("resolve session: %w", err)
	}
	history, err := s.sessions.History(ctx, sid)
	if err != nil {
		return "", "", fmt.Errorf("load history: %w", err)
	}
	history = history.Trim(s.historyBudget)

	intent := s.classifier.Classify(ctx, message, history)
	var bundle Bundle
	if !intent.Empty() {
		bundle = s.aggregator.Aggregate(ctx, intent, message)
	}
	reply, err = s.synthesizer.Synthesize(ctx, message, bundle, history)
	s.metrics.RecordLLMCall("synthesize", err)
	if err != nil {
		return "", "", err
	}

	if appendErr := s.sessions.Append(ctx, sid,
		models.Turn{Role: models.RoleUser, Content: message},
		models.Turn{Role: models.RoleAssistant, Content: reply},
	); appendErr != nil {
		s.logger.Printf("[SERVICE] append history for %s: %v", sid, appendErr)
	}
	if s.chatLog != nil {
		if saveErr := s.chatLog.SaveExchange(ctx, sid, message, reply); saveErr != nil {
			s.logger.Printf("[SERVICE] persist exchange for %s: %v", sid, saveErr)
		}
	}
	return reply, sid, nil
}
