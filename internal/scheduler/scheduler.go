// Package scheduler runs the background match-expiry sweep. Pending
// matches whose expiry has passed are cancelled in locked batches, so
// multiple instances can sweep concurrently without double-cancelling.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/events"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type expiredMatch struct {
	ID        snowflake.ID
	RequestID snowflake.ID
	AgentID   snowflake.ID
}

type Scheduler struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	outbox *events.Outbox

	interval  time.Duration
	batchSize int
}

type Param struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Outbox *events.Outbox
}

func New(p Param) *Scheduler {
	return &Scheduler{
		db:     p.DB,
		log:    p.Log.Named("scheduler"),
		clock:  p.Clock,
		outbox: p.Outbox,

		interval:  p.Config.Matching.ExpirySweepInterval,
		batchSize: p.Config.Matching.ExpiryBatchSize,
	}
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepExpired(ctx); err != nil {
				s.log.Warn("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepExpired cancels pending matches past their expiry, one locked batch
// per transaction, until no work remains.
func (s *Scheduler) SweepExpired(ctx context.Context) error {
	for {
		expired, err := s.sweepBatch(ctx)
		if err != nil {
			return err
		}
		if expired == 0 {
			return nil
		}
		s.log.Info("expired matches cancelled", zap.Int("count", expired))
	}
}

func (s *Scheduler) sweepBatch(ctx context.Context) (int, error) {
	now := s.clock.Now()
	var batch []expiredMatch

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Raw(
			`SELECT id, request_id, agent_id
			 FROM matches
			 WHERE status = ? AND expires_at IS NOT NULL AND expires_at <= ?
			 ORDER BY id
			 FOR UPDATE SKIP LOCKED
			 LIMIT ?`,
			matchdomain.StatusPending,
			now,
			s.batchSize,
		).Scan(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		ids := make([]snowflake.ID, 0, len(batch))
		for _, m := range batch {
			ids = append(ids, m.ID)
		}
		if err := tx.WithContext(ctx).Exec(
			`UPDATE matches
			 SET status = ?, responded_at = ?
			 WHERE id IN ? AND status = ?`,
			matchdomain.StatusCancelled,
			now,
			ids,
			matchdomain.StatusPending,
		).Error; err != nil {
			return err
		}

		for _, m := range batch {
			payload := events.MatchPayload{
				MatchID:   m.ID.String(),
				RequestID: m.RequestID.String(),
				AgentID:   m.AgentID.String(),
				Status:    string(matchdomain.StatusCancelled),
			}
			err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type:      events.EventMatchExpired,
				Payload:   payload.ToMap(),
				DedupeKey: fmt.Sprintf("%s:%s", events.EventMatchExpired, m.ID.String()),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

// Register starts the sweep loop when expiry is enabled.
func Register(lc fx.Lifecycle, s *Scheduler, cfg config.Config) {
	if !cfg.Matching.MatchExpiryEnabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(Register),
)
