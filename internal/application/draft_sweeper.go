package application

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DraftSweeper periodically expires abandoned drafts.
type DraftSweeper struct {
	cron   *cron.Cron
	store  *DraftStore
	logger *zap.Logger
}

// NewDraftSweeper schedules store.Sweep on the given cron spec
// (for example "@every 5m").
func NewDraftSweeper(store *DraftStore, schedule string, logger *zap.Logger) (*DraftSweeper, error) {
	s := &DraftSweeper{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		store:  store,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid draft sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *DraftSweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context done once a running sweep finishes.
func (s *DraftSweeper) Stop() context.Context {
	return s.cron.Stop()
}

func (s *DraftSweeper) sweep() {
	removed := s.store.Sweep()
	if removed > 0 {
		s.logger.Info("expired abandoned booking drafts",
			zap.Int("removed", removed),
			zap.Int("remaining", s.store.Len()),
		)
	}
}
