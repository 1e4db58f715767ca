// Package daemon provides the long-running ledger monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/carledger/internal/period"
	"github.com/theirongolddev/carledger/internal/pipeline"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Window       period.Window
	Interval     time.Duration
	Schedule     string // cron spec; overrides Interval when set
	Addr         string
	EventsBuffer int
}

// VehicleSnapshot is one vehicle's compact state for status/event payloads.
type VehicleSnapshot struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Mileage   int     `json:"mileage"`
	TotalCost float64 `json:"total_cost"`
	Distance  int     `json:"distance_km"`
	CostPerKm float64 `json:"cost_per_km"`
	Warning   int     `json:"warning"`
	Critical  int     `json:"critical"`
}

// Snapshot is the fleet state at one poll.
type Snapshot struct {
	At        time.Time         `json:"at"`
	Since     time.Time         `json:"since"`
	Until     time.Time         `json:"until"`
	TotalCost float64           `json:"total_cost"`
	Warning   int               `json:"warning"`
	Critical  int               `json:"critical"`
	Vehicles  []VehicleSnapshot `json:"vehicles"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Vehicles  int     `json:"vehicles"`
	Mileage   int     `json:"mileage"`
	TotalCost float64 `json:"total_cost"`
	Warning   int     `json:"warning"`
	Critical  int     `json:"critical"`
}

func (d Delta) isZero() bool {
	return d.Vehicles == 0 &&
		d.Mileage == 0 &&
		d.TotalCost == 0 &&
		d.Warning == 0 &&
		d.Critical == 0
}

// Event is emitted whenever the snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec,omitempty"`
	Schedule        string    `json:"schedule"`
	PollCount       int64     `json:"poll_count"`
	Window          string    `json:"window"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src pipeline.RecordSource
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service reading records from src.
func New(cfg Config, src pipeline.RecordSource) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every " + cfg.Interval.String()
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(s.cfg.Schedule, s.pollOnce); err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", s.cfg.Schedule, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

func (s *Service) pollOnce() {
	now := s.now()
	all, err := pipeline.Load(s.src)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Error().Err(err).Msg("daemon poll failed")
		return
	}

	results := pipeline.AggregateFleet(all, s.cfg.Window, now, nil)
	snap := snapshotFromResults(results, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "ledger_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		log.Debug().Str("type", ev.Type).Int64("id", ev.ID).Msg("publishing event")
		s.publishEvent(ev)
	}
}

func snapshotFromResults(results []pipeline.FleetResult, at time.Time) Snapshot {
	snap := Snapshot{At: at, Vehicles: make([]VehicleSnapshot, 0, len(results))}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		warn, crit := r.Alerts()
		vs := VehicleSnapshot{
			ID:       r.Vehicle.ID,
			Name:     r.Vehicle.Name,
			Mileage:  r.Vehicle.CurrentMileage,
			Warning:  warn,
			Critical: crit,
		}
		if g := r.Bundle.General; g != nil {
			vs.TotalCost = g.TotalCost
			vs.Distance = g.DistanceKm
			vs.CostPerKm = g.CostPerKm
		}
		snap.Since, snap.Until = r.Bundle.Since, r.Bundle.Until
		snap.TotalCost += vs.TotalCost
		snap.Warning += warn
		snap.Critical += crit
		snap.Vehicles = append(snap.Vehicles, vs)
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Vehicles:  len(curr.Vehicles) - len(prev.Vehicles),
		Mileage:   totalMileage(curr) - totalMileage(prev),
		TotalCost: curr.TotalCost - prev.TotalCost,
		Warning:   curr.Warning - prev.Warning,
		Critical:  curr.Critical - prev.Critical,
	}
}

func totalMileage(s Snapshot) int {
	n := 0
	for _, v := range s.Vehicles {
		n += v.Mileage
	}
	return n
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		Schedule:        s.cfg.Schedule,
		PollCount:       s.pollCount,
		Window:          s.cfg.Window.String(),
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Schedule returns the effective cron spec used for polling.
func (s *Service) Schedule() string {
	return s.cfg.Schedule
}
