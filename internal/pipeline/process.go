package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardfetch/internal"
)

type Fetcher interface {
	Fetch(ctx context.Context, name string) (internal.RawCard, error)
}

type Sink interface {
	Append(card internal.NormalizedCard) error
}

// Pacer gates each fetch; catalog.RateLimiter is the production one.
type Pacer interface {
	Wait(ctx context.Context) error
}

type Ledger interface {
	StartRun(traceID, inputPath, outputPath, variant string) (int64, error)
	RecordOutcome(runID int64, outcome internal.RowOutcome) error
	FinishRun(runID int64, summary internal.RunSummary) error
}

type BatchOption func(*BatchService)

func WithPacer(p Pacer) BatchOption {
	return func(s *BatchService) { s.pacer = p }
}

func WithLedger(l Ledger) BatchOption {
	return func(s *BatchService) { s.ledger = l }
}

func WithLogger(l *zap.Logger) BatchOption {
	return func(s *BatchService) { s.logger = l }
}

// BatchService runs fetch, normalize and append for each input row in
// order. A row's failure is logged and never stops the batch.
type BatchService struct {
	fetcher    Fetcher
	normalizer Normalizer
	sink       Sink
	pacer      Pacer
	ledger     Ledger
	logger     *zap.Logger
}

func NewBatchService(fetcher Fetcher, normalizer Normalizer, sink Sink, opts ...BatchOption) *BatchService {
	s := &BatchService{
		fetcher:    fetcher,
		normalizer: normalizer,
		sink:       sink,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noPacer struct{}

func (noPacer) Wait(ctx context.Context) error { return ctx.Err() }

// Run processes rows sequentially. Cancelling ctx stops the batch before
// the next row starts; the returned summary covers the rows handled so far.
func (s *BatchService) Run(ctx context.Context, inputPath, outputPath string, rows []internal.InputRow) (internal.RunSummary, error) {
	summary := internal.RunSummary{TraceID: uuid.NewString()}
	logger := s.logger.With(zap.String("trace", summary.TraceID))
	pacer := s.pacer
	if pacer == nil {
		pacer = noPacer{}
	}

	start := time.Now()
	runID, ledger := s.startLedger(logger, summary.TraceID, inputPath, outputPath)
	logger.Info("batch started", zap.String("input", inputPath), zap.String("output", outputPath), zap.Int("rows", len(rows)), zap.String("variant", string(s.normalizer.Variant())))

	var runErr error
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if row.Name == "" {
			summary.Total++
			summary.Skipped++
			logger.Debug("skipping row with blank name", zap.Int("line", row.LineNo))
			s.record(logger, ledger, runID, internal.RowOutcome{LineNo: row.LineNo, ExternalID: row.ExternalID, Status: internal.OutcomeSkipped})
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			runErr = err
			break
		}

		summary.Total++
		outcome := s.processRow(ctx, logger, row)
		switch outcome.Status {
		case internal.OutcomeSaved:
			summary.Saved++
		case internal.OutcomeFailed:
			summary.Failed++
		}
		s.record(logger, ledger, runID, outcome)
	}

	if ledger != nil {
		if err := ledger.FinishRun(runID, summary); err != nil {
			logger.Warn("ledger finish failed", zap.Error(err))
		}
	}
	logger.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("saved", summary.Saved),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, runErr
}

func (s *BatchService) processRow(ctx context.Context, logger *zap.Logger, row internal.InputRow) internal.RowOutcome {
	outcome := internal.RowOutcome{LineNo: row.LineNo, ExternalID: row.ExternalID, Name: row.Name}
	rowLogger := logger.With(zap.Int("line", row.LineNo), zap.String("card", row.Name))
	rowLogger.Info("fetching card")

	// A started row runs to completion even if ctx is cancelled meanwhile.
	raw, err := s.fetcher.Fetch(context.WithoutCancel(ctx), row.Name)
	if err != nil {
		rowLogger.Warn("card fetch failed", zap.Error(err))
		outcome.Status = internal.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	card := s.normalizer.Normalize(raw, row.ExternalID)
	if err := s.sink.Append(card); err != nil {
		rowLogger.Error("card append failed", zap.Error(err))
		outcome.Status = internal.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	rowLogger.Info("card saved", zap.String("saved_name", card.Name), zap.String("passcode", card.Passcode))
	outcome.Status = internal.OutcomeSaved
	outcome.Passcode = card.Passcode
	return outcome
}

func (s *BatchService) startLedger(logger *zap.Logger, traceID, inputPath, outputPath string) (int64, Ledger) {
	if s.ledger == nil {
		return 0, nil
	}
	runID, err := s.ledger.StartRun(traceID, inputPath, outputPath, string(s.normalizer.Variant()))
	if err != nil {
		logger.Warn("ledger disabled for this run", zap.Error(err))
		return 0, nil
	}
	return runID, s.ledger
}

func (s *BatchService) record(logger *zap.Logger, ledger Ledger, runID int64, outcome internal.RowOutcome) {
	if ledger == nil {
		return
	}
	if err := ledger.RecordOutcome(runID, outcome); err != nil {
		logger.Warn("ledger write failed", zap.Int("line", outcome.LineNo), zap.Error(err))
	}
}
