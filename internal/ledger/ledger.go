// Package ledger holds the cash-denomination state: two buckets of bill counts,
// the transfer history, and the optional PIN, together with the rules that keep
// quantities and totals consistent and durable.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/cashbox/internal/log"
)

// DefaultKey is the storage key the state blob lives under.
const DefaultKey = "moneyApp"

// MaxQuantity caps the count a single edit can set for one denomination.
// Transfers may push a general count past it, up to maxStoredQuantity.
const MaxQuantity int64 = 999_999

// maxStoredQuantity bounds every count, in memory and on load, so totals cannot overflow.
const maxStoredQuantity int64 = 1_000_000_000

// DefaultDenominations is the bill set used when none is configured.
var DefaultDenominations = []Denomination{2000, 5000, 10000, 20000, 50000, 100000}

// Denomination is the face value of a bill, in the smallest currency unit.
type Denomination int64

// BucketName identifies one of the two buckets.
type BucketName string

const (
	General BucketName = "general"
	Weekly  BucketName = "weekly"
)

// Buckets lists the bucket names in display order.
var Buckets = []BucketName{General, Weekly}

// Bucket maps each denomination to the number of bills held.
type Bucket map[Denomination]int64

// HistoryEntry records one completed weekly-to-general transfer.
type HistoryEntry struct {
	ID        string
	Timestamp time.Time
	Amount    int64
}

// State is the full persisted ledger.
type State struct {
	General Bucket
	Weekly  Bucket
	History []HistoryEntry // newest first
	PIN     string
}

// ResetPolicy selects what Reset clears besides the bucket quantities.
type ResetPolicy struct {
	ClearHistory bool
	ClearPIN     bool
}

// Store is the durable key-value store the ledger persists into.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Options configures a Ledger.
type Options struct {
	Denominations      []Denomination
	Key                string
	SkipEmptyTransfers bool
	Debounce           time.Duration
	Logger             *log.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// DefaultOptions returns the stock setup: the standard bill
// set, empty transfers skipped, immediate writes.
func DefaultOptions() Options {
	return Options{
		Denominations:      DefaultDenominations,
		Key:                DefaultKey,
		SkipEmptyTransfers: true,
	}
}

// Ledger owns one State. It is not safe for concurrent use; a single actor drives it.
type Ledger struct {
	denoms []Denomination
	index  map[Denomination]struct{}
	opts   Options
	store  Store
	log    *log.Logger
	saver  *Saver

	state State

	lastSaveErr error
}

// Open loads the ledger from store. It never fails: an absent, unreadable or
// corrupt blob yields zeroed buckets and an empty history.
func Open(store Store, opts Options) *Ledger {
	if len(opts.Denominations) == 0 {
		opts.Denominations = DefaultDenominations
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}

	l := &Ledger{
		denoms: append([]Denomination(nil), opts.Denominations...),
		index:  make(map[Denomination]struct{}, len(opts.Denominations)),
		opts:   opts,
		store:  store,
		log:    opts.Logger.WithComponent("ledger"),
	}
	for _, d := range l.denoms {
		l.index[d] = struct{}{}
	}
	if opts.Debounce > 0 {
		l.saver = NewSaver(opts.Debounce, l.write)
	}

	l.load()
	return l
}

func (l *Ledger) load() {
	l.state = l.emptyState()

	raw, ok, err := l.store.Get(l.opts.Key)
	if err != nil {
		l.log.Warn("reading stored ledger failed, starting empty", "key", l.opts.Key, "err", err)
		return
	}
	if !ok {
		return
	}

	st, err := decodeState(raw, l.denoms, l.opts.NewID)
	if err != nil {
		l.log.Warn("stored ledger unreadable, starting empty", "key", l.opts.Key, "err", err)
		return
	}
	l.state = st
}

func (l *Ledger) emptyState() State {
	return State{
		General: l.zeroBucket(),
		Weekly:  l.zeroBucket(),
		History: []HistoryEntry{},
	}
}

func (l *Ledger) zeroBucket() Bucket {
	b := make(Bucket, len(l.denoms))
	for _, d := range l.denoms {
		b[d] = 0
	}
	return b
}

func (l *Ledger) bucket(name BucketName) Bucket {
	switch name {
	case General:
		return l.state.General
	case Weekly:
		return l.state.Weekly
	}
	return nil
}

// Denominations returns the configured bill set in ascending order.
func (l *Ledger) Denominations() []Denomination {
	return append([]Denomination(nil), l.denoms...)
}

// Has reports whether d belongs to the configured set.
func (l *Ledger) Has(d Denomination) bool {
	_, ok := l.index[d]
	return ok
}

// Quantity returns the number of d bills in the bucket.
func (l *Ledger) Quantity(name BucketName, d Denomination) int64 {
	b := l.bucket(name)
	if b == nil {
		return 0
	}
	return b[d]
}

// Subtotal returns quantity × face value for one denomination.
func (l *Ledger) Subtotal(name BucketName, d Denomination) int64 {
	return l.Quantity(name, d) * int64(d)
}

// BucketTotal sums every subtotal of the bucket. Recomputed on every call.
func (l *Ledger) BucketTotal(name BucketName) int64 {
	var total int64
	for _, d := range l.denoms {
		total += l.Subtotal(name, d)
	}
	return total
}

// GrandTotal is the sum of both bucket totals.
func (l *Ledger) GrandTotal() int64 {
	return l.BucketTotal(General) + l.BucketTotal(Weekly)
}

// SetQuantity coerces raw into a quantity and stores it. Unparseable or negative
// input becomes 0; unknown buckets and denominations are ignored.
func (l *Ledger) SetQuantity(name BucketName, d Denomination, raw string) {
	b := l.bucket(name)
	if b == nil || !l.Has(d) {
		return
	}
	b[d] = CoerceQuantity(raw)
	l.persist()
}

// Adjust adds delta bills to the bucket, clamping at 0 and MaxQuantity.
func (l *Ledger) Adjust(name BucketName, d Denomination, delta int64) {
	b := l.bucket(name)
	if b == nil || !l.Has(d) {
		return
	}
	b[d] = clampQuantity(b[d] + delta)
	l.persist()
}

// TransferWeeklyToGeneral moves every weekly bill into general and logs the
// moved amount. The amount is the weekly total taken before anything is zeroed.
// With SkipEmptyTransfers an empty weekly bucket makes this a no-op.
func (l *Ledger) TransferWeeklyToGeneral() (int64, bool) {
	amount := l.BucketTotal(Weekly)
	if amount == 0 && l.opts.SkipEmptyTransfers {
		return 0, false
	}

	for _, d := range l.denoms {
		l.state.General[d] = min(l.state.General[d]+l.state.Weekly[d], maxStoredQuantity)
		l.state.Weekly[d] = 0
	}

	entry := HistoryEntry{
		ID:        l.opts.NewID(),
		Timestamp: l.opts.Now(),
		Amount:    amount,
	}
	l.state.History = append([]HistoryEntry{entry}, l.state.History...)

	l.log.Info("weekly bucket transferred", "amount", amount, "entry", entry.ID)
	l.persist()
	return amount, true
}

// Reset zeroes both buckets. History and PIN survive unless the policy says otherwise.
func (l *Ledger) Reset(policy ResetPolicy) {
	l.state.General = l.zeroBucket()
	l.state.Weekly = l.zeroBucket()
	if policy.ClearHistory {
		l.state.History = []HistoryEntry{}
	}
	if policy.ClearPIN {
		l.state.PIN = ""
	}
	l.persist()
}

// Wipe clears all state and removes the storage entry itself.
func (l *Ledger) Wipe() error {
	if l.saver != nil {
		l.saver.Cancel()
	}
	l.state = l.emptyState()
	if err := l.store.Delete(l.opts.Key); err != nil {
		l.lastSaveErr = err
		l.log.Warn("deleting stored ledger failed", "key", l.opts.Key, "err", err)
		return err
	}
	l.lastSaveErr = nil
	if l.saver != nil {
		l.saver.clearErr()
	}
	return nil
}

// State returns a deep copy of the current state.
func (l *Ledger) State() State {
	cp := State{
		General: make(Bucket, len(l.state.General)),
		Weekly:  make(Bucket, len(l.state.Weekly)),
		History: append([]HistoryEntry(nil), l.state.History...),
		PIN:     l.state.PIN,
	}
	for d, q := range l.state.General {
		cp.General[d] = q
	}
	for d, q := range l.state.Weekly {
		cp.Weekly[d] = q
	}
	return cp
}

// History returns the transfer log, newest first.
func (l *Ledger) History() []HistoryEntry {
	return append([]HistoryEntry(nil), l.state.History...)
}

// Save serializes the state and writes it immediately, superseding any pending debounced write.
func (l *Ledger) Save() error {
	if l.saver != nil {
		l.saver.Cancel()
	}
	payload, err := encodeState(l.state, l.denoms)
	if err != nil {
		return err
	}
	l.lastSaveErr = l.write(payload)
	if l.lastSaveErr == nil && l.saver != nil {
		l.saver.clearErr()
	}
	return l.lastSaveErr
}

// Flush forces a pending debounced write and returns the latest persistence error.
func (l *Ledger) Flush() error {
	if l.saver != nil {
		l.saver.Flush()
	}
	return l.LastSaveErr()
}

// LastSaveErr returns the error of the most recent write, nil when it succeeded.
func (l *Ledger) LastSaveErr() error {
	if l.saver != nil {
		if err := l.saver.Err(); err != nil {
			return err
		}
	}
	return l.lastSaveErr
}

func (l *Ledger) persist() {
	payload, err := encodeState(l.state, l.denoms)
	if err != nil {
		l.lastSaveErr = err
		l.log.Warn("encoding ledger failed", "err", err)
		return
	}
	if l.saver != nil {
		// The scheduled write supersedes any earlier immediate one; its result lands in the saver.
		l.lastSaveErr = nil
		l.saver.Schedule(payload)
		return
	}
	l.lastSaveErr = l.write(payload)
}

// write runs on the caller's goroutine for immediate saves and on the saver's
// timer goroutine for debounced ones, so it touches only the payload and the store.
func (l *Ledger) write(payload string) error {
	if err := l.store.Set(l.opts.Key, payload); err != nil {
		l.log.Warn("saving ledger failed, in-memory state kept", "key", l.opts.Key, "err", err)
		return err
	}
	return nil
}
