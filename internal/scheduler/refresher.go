package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/trahn-ladder/internal/external"
	"github.com/kjannette/trahn-ladder/internal/metrics"
	"github.com/kjannette/trahn-ladder/internal/models"
	"github.com/kjannette/trahn-ladder/internal/repository"
	"github.com/kjannette/trahn-ladder/internal/risk"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

// Notifier delivers alert messages.
type Notifier interface {
	Send(ctx context.Context, msg string) error
}

type RefresherConfig struct {
	Interval        time.Duration         // e.g. 15*time.Minute
	ChangeThreshold float64               // percent, e.g. 5.0
	Params          strategy.LadderParams // Price is replaced by the fetched price
	SourceName      string
	OnRefresh       func(RefreshResult)
}

// RefreshResult describes one refresh cycle.
type RefreshResult struct {
	Price         float64
	PreviousPrice float64 // 0 on the first refresh
	ChangePercent float64
	Snapshot      *models.LadderSnapshot
	Breaches      []risk.Breach
	Reasons       []string
	Notified      bool
}

// LadderRefresher periodically rebuilds the default ladder at the current
// price and records it as a snapshot.
type LadderRefresher struct {
	prices   external.PriceSource
	store    repository.SnapshotStore
	guardian *risk.Guardian
	notifier Notifier
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	cfg      RefresherConfig

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	lastPrice float64
	seeded    bool
	refreshMu sync.Mutex
}

func NewLadderRefresher(
	prices external.PriceSource,
	store repository.SnapshotStore,
	guardian *risk.Guardian,
	notifier Notifier,
	m *metrics.Metrics,
	log logrus.FieldLogger,
	cfg RefresherConfig,
) *LadderRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.ChangeThreshold <= 0 {
		cfg.ChangeThreshold = 5
	}
	if guardian == nil {
		guardian = risk.NewGuardian(risk.Limits{})
	}
	return &LadderRefresher{
		prices:   prices,
		store:    store,
		guardian: guardian,
		notifier: notifier,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
}

func (s *LadderRefresher) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("refresher already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	// Initial refresh on startup (fire-and-forget)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		if _, err := s.refresh(ctx); err != nil {
			s.log.WithError(err).Error("initial refresh failed")
		}
	}()

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
				if _, err := s.refresh(ctx); err != nil {
					s.log.WithError(err).Error("refresh failed")
				}
				cancel()
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"interval":  s.cfg.Interval.String(),
		"threshold": s.cfg.ChangeThreshold,
	}).Info("refresher started")
}

func (s *LadderRefresher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	s.log.Info("refresher stopped")
}

func (s *LadderRefresher) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RefreshNow triggers a refresh outside the normal schedule.
func (s *LadderRefresher) RefreshNow(ctx context.Context) (RefreshResult, error) {
	s.log.Info("manual refresh triggered")
	return s.refresh(ctx)
}

func (s *LadderRefresher) refresh(ctx context.Context) (RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var res RefreshResult

	price, err := s.prices.Price(ctx)
	s.metrics.ObservePrice(s.cfg.SourceName, price, err)
	if err != nil {
		return res, errors.Wrap(err, "fetch price")
	}
	res.Price = price

	p := s.cfg.Params
	p.Price = price
	levels, err := s.metrics.BuildLadder(p)
	if err != nil {
		return res, errors.Wrap(err, "build ladder")
	}

	if err := s.seed(ctx); err != nil {
		s.log.WithError(err).Warn("could not load last snapshot")
	}
	if s.lastPrice > 0 {
		res.PreviousPrice = s.lastPrice
		res.ChangePercent = strategy.PriceChangePercent(price, s.lastPrice)
		if res.ChangePercent > s.cfg.ChangeThreshold {
			res.Reasons = append(res.Reasons, fmt.Sprintf("price moved %.2f%% (%.4f -> %.4f)",
				res.ChangePercent, s.lastPrice, price))
		}
	}

	snap, err := models.NewLadderSnapshot("", p, levels)
	if err != nil {
		return res, errors.Wrap(err, "encode snapshot")
	}
	res.Snapshot, err = s.store.Record(ctx, snap)
	if err != nil {
		return res, errors.Wrap(err, "record snapshot")
	}
	s.lastPrice = price

	res.Breaches = s.guardian.Breaches(res.Snapshot.Stats, levels)
	for _, b := range res.Breaches {
		res.Reasons = append(res.Reasons, b.Message)
	}

	entry := s.log.WithFields(logrus.Fields{
		"price":    price,
		"change":   fmt.Sprintf("%.2f%%", res.ChangePercent),
		"levels":   len(levels),
		"snapshot": res.Snapshot.ID,
	})
	if len(res.Reasons) == 0 {
		entry.Info("ladder refreshed, stable")
	} else {
		entry.WithField("reasons", strings.Join(res.Reasons, "; ")).Warn("ladder refreshed, needs attention")
		if s.notifier != nil {
			msg := fmt.Sprintf("Ladder @ %.4f needs attention: %s", price, strings.Join(res.Reasons, "; "))
			if err := s.notifier.Send(ctx, msg); err != nil {
				s.log.WithError(err).Warn("notification failed")
			} else {
				res.Notified = true
			}
		}
	}

	if s.cfg.OnRefresh != nil {
		s.cfg.OnRefresh(res)
	}
	return res, nil
}

// seed loads the last default-ladder price from the store once, so a restart
// does not lose the change baseline.
func (s *LadderRefresher) seed(ctx context.Context) error {
	if s.seeded {
		return nil
	}
	s.seeded = true
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return err
	}
	if snap != nil && snap.PresetName == "" {
		s.lastPrice = snap.Price
	}
	return nil
}
