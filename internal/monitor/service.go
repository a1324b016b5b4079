package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/internal/detection"
	"github.com/tmarini/skywatch/internal/geofence"
	"github.com/tmarini/skywatch/internal/notify"
	"github.com/tmarini/skywatch/internal/storage/csvfile"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Fetcher provides raw telemetry snapshots
type Fetcher interface {
	FetchCycle(ctx context.Context) ([]adsb.RawAircraft, error)
}

// Service drives the poll-detect-persist loop. Each cycle fetches a raw
// snapshot, normalizes and filters it, runs the detection engine, and fans
// the surviving events out to storage and notification. Persistence and
// notification failures are logged and never stop the loop.
type Service struct {
	cfg      *config.Config
	fetcher  Fetcher
	fence    *geofence.Fence
	engine   *detection.Engine
	events   *sqlite.EventStorage
	csv      *csvfile.Sink
	notifier notify.Notifier
	logger   *logger.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	// Injectable clock for tests
	now func() time.Time
}

// NewService creates the monitoring service. fence, events, csv and
// notifier may each be nil to disable that stage.
func NewService(
	cfg *config.Config,
	fetcher Fetcher,
	fence *geofence.Fence,
	events *sqlite.EventStorage,
	csv *csvfile.Sink,
	notifier notify.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		fence:    fence,
		engine:   detection.NewEngine(cfg.Detection, log),
		events:   events,
		csv:      csv,
		notifier: notifier,
		logger:   log.Named("monitor"),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the polling loop
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("Starting monitor service",
		logger.Duration("poll_interval", s.cfg.ADSB.PollInterval()),
		logger.Int("tiles", len(s.cfg.ADSB.Tiles)),
	)

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop terminates the polling loop and waits for the current cycle
func (s *Service) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Monitor service stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		started := s.now()
		s.RunOnce(ctx)

		// Sleep out the remainder of the interval, one second minimum so a
		// slow cycle cannot turn the loop into a busy spin.
		sleep := s.cfg.ADSB.PollInterval() - s.now().Sub(started)
		if sleep < time.Second {
			sleep = time.Second
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-time.After(sleep):
		}
	}
}

// RunOnce executes a single fetch-detect-persist cycle
func (s *Service) RunOnce(ctx context.Context) {
	raws, err := s.fetcher.FetchCycle(ctx)
	if err != nil {
		s.logger.Error("Telemetry fetch failed", logger.Error(err))
		return
	}

	states := adsb.NormalizeAll(raws, s.logger)
	states = dedupe(states)
	states = s.filter(states)

	events := s.engine.RunCycle(s.now(), states)
	if len(events) == 0 {
		return
	}

	s.persist(events)
	s.announce(ctx, events)
}

// dedupe collapses duplicate hex records from overlapping tiles and the
// military feed. The first positioned record wins; the military flag is
// merged across all of them.
func dedupe(states []*adsb.AircraftState) []*adsb.AircraftState {
	index := make(map[string]int, len(states))
	var out []*adsb.AircraftState

	for _, state := range states {
		i, seen := index[state.Hex]
		if !seen {
			index[state.Hex] = len(out)
			out = append(out, state)
			continue
		}
		if state.IsMilitary {
			out[i].IsMilitary = true
		}
		if !out[i].HasPosition() && state.HasPosition() {
			state.IsMilitary = state.IsMilitary || out[i].IsMilitary
			out[i] = state
		}
	}
	return out
}

// filter applies the geofence. With a fence configured, aircraft without a
// position cannot be placed and are dropped.
func (s *Service) filter(states []*adsb.AircraftState) []*adsb.AircraftState {
	if s.fence == nil {
		return states
	}

	kept := states[:0]
	for _, state := range states {
		if state.HasPosition() && s.fence.Contains(*state.Lat, *state.Lon) {
			kept = append(kept, state)
		}
	}
	return kept
}

func (s *Service) persist(events []*detection.Event) {
	for _, event := range events {
		if s.events != nil {
			if _, err := s.events.StoreEvent(event); err != nil {
				s.logger.Error("Failed to store event",
					logger.String("hex", event.Hex),
					logger.Error(err),
				)
			}
		}
		if s.csv != nil {
			if err := s.csv.Append(event); err != nil {
				s.logger.Error("Failed to append event to CSV",
					logger.String("hex", event.Hex),
					logger.Error(err),
				)
			}
		}
	}
}

// announce sends one notification per event, collapsing the two records of
// a proximity pair into a single message.
func (s *Service) announce(ctx context.Context, events []*detection.Event) {
	if s.notifier == nil {
		return
	}

	seenPairs := make(map[string]struct{})
	for _, event := range events {
		if event.Type == detection.EventProx {
			key := pairKey(event.Hex, event.PeerHex)
			if _, dup := seenPairs[key]; dup {
				continue
			}
			seenPairs[key] = struct{}{}
		}

		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Error("Failed to deliver notification",
				logger.String("hex", event.Hex),
				logger.String("type", string(event.Type)),
				logger.Error(err),
			)
		}
	}
}

func pairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + "|" + pair[1]
}
