// Package historian pops match actions from the Redis queue and persists
// them to Postgres in batches. Matches that stop producing actions are
// marked abandoned.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/meitra/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields raw queued records. It returns nil, nil when nothing arrived
// within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// ActionStore is the persistence the historian writes to.
type ActionStore interface {
	InsertActions(ctx context.Context, records []cache.MatchActionRecord) error
	MarkAbandoned(ctx context.Context, matchID uuid.UUID) (bool, error)
}

type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration // idle time after which a match is abandoned
	SweepEvery time.Duration
	PopTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.Inactivity <= 0 {
		o.Inactivity = 10 * time.Minute
	}
	if o.SweepEvery <= 0 {
		o.SweepEvery = time.Minute
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = time.Second
	}
	return o
}

// Service encapsulates the queue and DB logic for capturing match actions.
type Service struct {
	source Source
	store  ActionStore
	opts   Options
	logger *logrus.Logger
	now    func() time.Time

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []cache.MatchActionRecord
}

func New(source Source, store ActionStore, opts Options, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts = opts.withDefaults()
	return &Service{
		source: source,
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		batch:  make([]cache.MatchActionRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue and sweeps for idle matches until ctx is cancelled,
// then flushes what is left.
func (hs *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hs.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		hs.inactivityLoop(ctx)
	}()

	hs.logger.Info("meitra-historian started")
	wg.Wait()

	// the run context is gone; give the final flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hs.Flush(flushCtx)
	hs.logger.Info("meitra-historian stopped")
}

func (hs *Service) readLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.Flush(ctx)
		default:
			raw, err := hs.source.Pop(ctx, hs.opts.PopTimeout)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				hs.logger.Errorf("queue pop: %v", err)
				continue
			}
			if raw != nil {
				hs.handle(ctx, raw)
			}
		}
	}
}

// handle decodes one queued record and adds it to the batch.
func (hs *Service) handle(ctx context.Context, raw []byte) {
	rec, err := cache.DecodeRecord(raw)
	if err != nil {
		hs.logger.Warn(err)
		return
	}
	if rec.ActionType == cache.ActionMatchEnd {
		hs.lastActivity.Delete(rec.MatchID)
	} else {
		hs.lastActivity.Store(rec.MatchID, hs.now())
	}
	hs.appendToBatch(ctx, rec)
}

// appendToBatch adds a record to the in-memory batch and flushes if the threshold is reached.
func (hs *Service) appendToBatch(ctx context.Context, rec cache.MatchActionRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, rec)
	if len(hs.batch) >= hs.opts.BatchSize {
		hs.flushLocked(ctx)
	}
}

// Flush writes the current batch in a single transaction.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushLocked(ctx)
}

// flushLocked keeps the batch when the write fails so the next flush
// retries it; inserts are idempotent per (match, index). A batch that grows
// past maxRetained drops its oldest records.
func (hs *Service) flushLocked(ctx context.Context) {
	if len(hs.batch) == 0 {
		return
	}
	if err := hs.store.InsertActions(ctx, hs.batch); err != nil {
		hs.logger.Errorf("flush of %d actions failed: %v", len(hs.batch), err)
		if limit := hs.maxRetained(); len(hs.batch) > limit {
			dropped := len(hs.batch) - limit
			hs.batch = append(hs.batch[:0], hs.batch[dropped:]...)
			hs.logger.Errorf("dropped %d unflushed actions", dropped)
		}
		return
	}
	hs.logger.Debugf("flushed %d actions", len(hs.batch))
	hs.batch = hs.batch[:0]
}

func (hs *Service) maxRetained() int {
	return hs.opts.BatchSize * 50
}

// Pending counts records waiting for the next flush.
func (hs *Service) Pending() int {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	return len(hs.batch)
}

func (hs *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.opts.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.sweepInactive(ctx)
		}
	}
}

// sweepInactive marks every match idle for longer than Inactivity as
// abandoned and stops tracking it.
func (hs *Service) sweepInactive(ctx context.Context) []uuid.UUID {
	now := hs.now()
	var abandoned []uuid.UUID
	hs.lastActivity.Range(func(key, val interface{}) bool {
		matchID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= hs.opts.Inactivity {
			return true
		}
		// pending actions of the match must land before its status changes
		hs.Flush(ctx)
		changed, err := hs.store.MarkAbandoned(ctx, matchID)
		if err != nil {
			hs.logger.Errorf("failed to mark match %v abandoned: %v", matchID, err)
			return true
		}
		hs.lastActivity.Delete(matchID)
		if changed {
			hs.logger.Infof("marked match %v as 'abandoned' due to inactivity", matchID)
			abandoned = append(abandoned, matchID)
		}
		return true
	})
	return abandoned
}
