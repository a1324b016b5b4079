package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/internal/detection"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	raws  []adsb.RawAircraft
	err   error
}

func (f *fakeFetcher) FetchCycle(ctx context.Context) ([]adsb.RawAircraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.raws, f.err
}

type captureNotifier struct {
	mu     sync.Mutex
	events []*detection.Event
}

func (n *captureNotifier) Notify(ctx context.Context, event *detection.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func newTestStorage(t *testing.T) *sqlite.EventStorage {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	storage, err := sqlite.NewEventStorage(db, logger.Nop())
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	return storage
}

func militaryRaw(hex string) adsb.RawAircraft {
	return adsb.RawAircraft{Hex: hex, ForcedMilitary: true}
}

func TestRunOncePersistsAndNotifies(t *testing.T) {
	storage := newTestStorage(t)
	notifier := &captureNotifier{}
	fetcher := &fakeFetcher{raws: []adsb.RawAircraft{militaryRaw("ae1234")}}

	svc := NewService(config.DefaultConfig(), fetcher, nil, storage, nil, notifier, logger.Nop())
	svc.RunOnce(context.Background())

	records, err := storage.GetRecentEvents(10)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(records) != 1 || records[0].EventType != "MIL" || records[0].Hex != "ae1234" {
		t.Fatalf("stored records: %+v", records)
	}

	if len(notifier.events) != 1 || notifier.events[0].Type != detection.EventMilitary {
		t.Fatalf("notified events: %+v", notifier.events)
	}
}

func TestRunOnceCooldownAcrossCycles(t *testing.T) {
	storage := newTestStorage(t)
	fetcher := &fakeFetcher{raws: []adsb.RawAircraft{militaryRaw("ae1234")}}
	svc := NewService(config.DefaultConfig(), fetcher, nil, storage, nil, nil, logger.Nop())

	fakeNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fakeNow }

	svc.RunOnce(context.Background())
	fakeNow = fakeNow.Add(time.Minute)
	svc.RunOnce(context.Background())

	count, err := storage.CountEvents()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("stored %d events across two cycles, want 1", count)
	}
}

func TestRunOnceFetchFailureIsSilent(t *testing.T) {
	storage := newTestStorage(t)
	fetcher := &fakeFetcher{err: context.DeadlineExceeded}
	svc := NewService(config.DefaultConfig(), fetcher, nil, storage, nil, nil, logger.Nop())

	svc.RunOnce(context.Background())

	count, err := storage.CountEvents()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("stored %d events after a failed fetch, want 0", count)
	}
}

func TestDedupe(t *testing.T) {
	lat, lon := 45.0, 9.0
	positioned := &adsb.AircraftState{Hex: "abc", Lat: &lat, Lon: &lon}
	bare := &adsb.AircraftState{Hex: "abc"}
	milDup := &adsb.AircraftState{Hex: "abc", IsMilitary: true}

	out := dedupe([]*adsb.AircraftState{bare, positioned, milDup})
	if len(out) != 1 {
		t.Fatalf("got %d states, want 1", len(out))
	}
	if !out[0].HasPosition() {
		t.Error("positioned duplicate did not replace the bare record")
	}
	if !out[0].IsMilitary {
		t.Error("military flag was not merged across duplicates")
	}
}

func TestAnnounceCollapsesProximityPairs(t *testing.T) {
	notifier := &captureNotifier{}
	svc := NewService(config.DefaultConfig(), &fakeFetcher{}, nil, nil, nil, notifier, logger.Nop())

	events := []*detection.Event{
		{Type: detection.EventProx, Hex: "aaa", PeerHex: "bbb", Note: "CLUSTER; peer=bbb; dist=1.5 km"},
		{Type: detection.EventProx, Hex: "bbb", PeerHex: "aaa", Note: "CLUSTER; peer=aaa; dist=1.5 km"},
		{Type: detection.EventMilitary, Hex: "ae1234", Note: "MIL"},
	}
	svc.announce(context.Background(), events)

	if len(notifier.events) != 2 {
		t.Fatalf("sent %d notifications, want 2 (one per pair plus MIL)", len(notifier.events))
	}
	if notifier.events[0].Type != detection.EventProx || notifier.events[1].Type != detection.EventMilitary {
		t.Errorf("unexpected notification set: %+v", notifier.events)
	}
}
