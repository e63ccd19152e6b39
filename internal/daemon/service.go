// Package daemon provides the long-running background ledger monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/theirongolddev/cashbox/internal/ledger"
	"github.com/theirongolddev/cashbox/internal/log"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Store        ledger.Store
	Ledger       ledger.Options
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	AutoTransfer string // cron spec, empty disables
	Logger       *log.Logger
}

// Transfer is the most recent history entry as exposed over the API.
type Transfer struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Amount    int64     `json:"amount"`
}

// Snapshot is a compact ledger state for status/event payloads.
type Snapshot struct {
	At           time.Time `json:"at"`
	General      int64     `json:"general"`
	Weekly       int64     `json:"weekly"`
	Grand        int64     `json:"grand"`
	HistoryLen   int       `json:"history_len"`
	LastTransfer *Transfer `json:"last_transfer,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	General   int64 `json:"general"`
	Weekly    int64 `json:"weekly"`
	Grand     int64 `json:"grand"`
	Transfers int   `json:"transfers"`
}

func (d Delta) isZero() bool {
	return d.General == 0 &&
		d.Weekly == 0 &&
		d.Grand == 0 &&
		d.Transfers == 0
}

// Event is emitted whenever the ledger snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt        time.Time  `json:"started_at"`
	LastPollAt       time.Time  `json:"last_poll_at"`
	PollIntervalSec  int        `json:"poll_interval_sec"`
	PollCount        int64      `json:"poll_count"`
	StorageKey       string     `json:"storage_key"`
	AutoTransfer     string     `json:"auto_transfer,omitempty"`
	NextAutoTransfer *time.Time `json:"next_auto_transfer,omitempty"`
	Summary          Snapshot   `json:"summary"`
	LastError        string     `json:"last_error,omitempty"`
	EventCount       int        `json:"event_count"`
	SubscriberCount  int        `json:"subscriber_count"`
}

// stateView is the PIN-free view of the ledger served at /v1/state.
type stateView struct {
	Denominations []ledger.Denomination `json:"denominations"`
	General       ledger.Bucket         `json:"general"`
	Weekly        ledger.Bucket         `json:"weekly"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     *log.Logger
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	state       ledger.State
	nextEventID int64
	events      []Event
	cron        *cron.Cron
	cronEntry   cron.EntryID

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Ledger.Key == "" {
		cfg.Ledger.Key = ledger.DefaultKey
	}
	// The daemon reopens the ledger per poll; a debounced write would outlive it.
	cfg.Ledger.Debounce = 0
	cfg.Ledger.Logger = cfg.Logger

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.WithComponent("daemon"),
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// ValidateSchedule reports whether spec is a usable auto-transfer schedule.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid auto_transfer schedule %q: %w", spec, err)
	}
	return nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts HTTP endpoints, the optional transfer schedule and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.startSchedule(); err != nil {
		return err
	}
	defer s.stopSchedule()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) startSchedule() error {
	if s.cfg.AutoTransfer == "" {
		return nil
	}
	if err := ValidateSchedule(s.cfg.AutoTransfer); err != nil {
		return err
	}

	c := cron.New()
	id, err := c.AddFunc(s.cfg.AutoTransfer, func() { s.autoTransfer() })
	if err != nil {
		return fmt.Errorf("scheduling auto transfer: %w", err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.cronEntry = id
	s.mu.Unlock()
	return nil
}

func (s *Service) stopSchedule() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// autoTransfer moves the weekly bucket into general on a freshly loaded ledger.
func (s *Service) autoTransfer() (int64, bool) {
	// Open would start from an empty state and the transfer would then overwrite the stored blob.
	if _, _, err := s.cfg.Store.Get(s.cfg.Ledger.Key); err != nil {
		s.log.Warn("auto transfer skipped, ledger unreadable", "err", err)
		s.recordError(err)
		return 0, false
	}

	l := ledger.Open(s.cfg.Store, s.cfg.Ledger)
	amount, ok := l.TransferWeeklyToGeneral()
	if !ok {
		s.log.Info("auto transfer skipped, weekly bucket empty")
		return 0, false
	}
	if err := l.Flush(); err != nil {
		s.log.Warn("auto transfer not saved", "err", err)
		s.recordError(err)
		return amount, false
	}

	s.metrics.autoTransfers.Inc()
	s.log.Info("auto transfer done", "amount", amount)
	s.pollOnce()
	return amount, true
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) pollOnce() {
	s.metrics.polls.Inc()

	// Open never fails, so probe the store first to surface read errors in /v1/status.
	if _, _, err := s.cfg.Store.Get(s.cfg.Ledger.Key); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.metrics.pollErrors.Inc()
		s.log.Warn("daemon poll error", "err", err)
		return
	}

	now := time.Now()
	l := ledger.Open(s.cfg.Store, s.cfg.Ledger)
	snap := snapshotFromLedger(l, now)
	s.metrics.observe(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.state = l.State()
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "ledger_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromLedger(l *ledger.Ledger, at time.Time) Snapshot {
	snap := Snapshot{
		At:      at,
		General: l.BucketTotal(ledger.General),
		Weekly:  l.BucketTotal(ledger.Weekly),
		Grand:   l.GrandTotal(),
	}
	history := l.History()
	snap.HistoryLen = len(history)
	if len(history) > 0 {
		last := history[0]
		snap.LastTransfer = &Transfer{ID: last.ID, Timestamp: last.Timestamp, Amount: last.Amount}
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		General:   curr.General - prev.General,
		Weekly:    curr.Weekly - prev.Weekly,
		Grand:     curr.Grand - prev.Grand,
		Transfers: curr.HistoryLen - prev.HistoryLen,
	}
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

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		StorageKey:      s.cfg.Ledger.Key,
		AutoTransfer:    s.cfg.AutoTransfer,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.cron != nil {
		if next := s.cron.Entry(s.cronEntry).Next; !next.IsZero() {
			st.NextAutoTransfer = &next
		}
	}
	return st
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	view := stateView{
		Denominations: append([]ledger.Denomination(nil), s.cfg.Ledger.Denominations...),
		General:       s.state.General,
		Weekly:        s.state.Weekly,
	}
	s.mu.RUnlock()

	if len(view.Denominations) == 0 {
		view.Denominations = ledger.DefaultDenominations
	}
	writeJSON(w, view)
}

func (s *Service) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]Transfer, 0, len(s.state.History))
	for _, e := range s.state.History {
		out = append(out, Transfer{ID: e.ID, Timestamp: e.Timestamp, Amount: e.Amount})
	}
	s.mu.RUnlock()

	writeJSON(w, out)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
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

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
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
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
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
