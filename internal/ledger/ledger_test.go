package ledger

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/cashbox/internal/store"
)

var fixedNow = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("entry-%d", n)
	}
	return opts
}

func newTestLedger(t *testing.T) (*Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return Open(mem, testOptions()), mem
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(string, string) error         { return f.err }
func (f failingStore) Delete(string) error              { return f.err }

func TestOpen_EmptyStoreZeroesBuckets(t *testing.T) {
	l, _ := newTestLedger(t)

	for _, b := range Buckets {
		for _, d := range l.Denominations() {
			if q := l.Quantity(b, d); q != 0 {
				t.Fatalf("Quantity(%s, %d) = %d, want 0", b, d, q)
			}
		}
	}
	if l.GrandTotal() != 0 {
		t.Fatalf("GrandTotal = %d, want 0", l.GrandTotal())
	}
	if len(l.History()) != 0 {
		t.Fatalf("History len = %d, want 0", len(l.History()))
	}
	if l.HasPIN() {
		t.Fatal("HasPIN = true on empty store")
	}
}

func TestScenario(t *testing.T) {
	l, _ := newTestLedger(t)

	l.SetQuantity(General, 10000, "3")
	l.SetQuantity(Weekly, 5000, "4")

	if got := l.BucketTotal(General); got != 30000 {
		t.Fatalf("general total = %d, want 30000", got)
	}
	if got := l.BucketTotal(Weekly); got != 20000 {
		t.Fatalf("weekly total = %d, want 20000", got)
	}
	if got := l.GrandTotal(); got != 50000 {
		t.Fatalf("grand total = %d, want 50000", got)
	}

	amount, ok := l.TransferWeeklyToGeneral()
	if !ok || amount != 20000 {
		t.Fatalf("Transfer = (%d, %v), want (20000, true)", amount, ok)
	}
	if q := l.Quantity(General, 5000); q != 4 {
		t.Fatalf("general[5000] = %d, want 4", q)
	}
	if q := l.Quantity(Weekly, 5000); q != 0 {
		t.Fatalf("weekly[5000] = %d, want 0", q)
	}
	if got := l.BucketTotal(General); got != 50000 {
		t.Fatalf("general total after transfer = %d, want 50000", got)
	}
	if got := l.BucketTotal(Weekly); got != 0 {
		t.Fatalf("weekly total after transfer = %d, want 0", got)
	}

	h := l.History()
	if len(h) != 1 {
		t.Fatalf("history len = %d, want 1", len(h))
	}
	if h[0].Amount != 20000 {
		t.Fatalf("history[0].Amount = %d, want 20000", h[0].Amount)
	}
	if !h[0].Timestamp.Equal(fixedNow) {
		t.Fatalf("history[0].Timestamp = %v, want %v", h[0].Timestamp, fixedNow)
	}
}

func TestGrandTotal_Idempotent(t *testing.T) {
	l, _ := newTestLedger(t)
	l.SetQuantity(General, 2000, "7")
	l.SetQuantity(General, 100000, "2")
	l.SetQuantity(Weekly, 50000, "1")
	l.SetQuantity(Weekly, 20000, "9")

	first := l.GrandTotal()
	second := l.GrandTotal()
	if first != second {
		t.Fatalf("GrandTotal not stable: %d then %d", first, second)
	}
	if sum := l.BucketTotal(General) + l.BucketTotal(Weekly); first != sum {
		t.Fatalf("GrandTotal = %d, want general+weekly = %d", first, sum)
	}
	if first != 7*2000+2*100000+50000+9*20000 {
		t.Fatalf("GrandTotal = %d, want %d", first, 7*2000+2*100000+50000+9*20000)
	}
}

func TestSubtotal(t *testing.T) {
	l, _ := newTestLedger(t)
	l.SetQuantity(Weekly, 20000, "3")

	if got := l.Subtotal(Weekly, 20000); got != 60000 {
		t.Fatalf("Subtotal = %d, want 60000", got)
	}
	if got := l.Subtotal(General, 20000); got != 0 {
		t.Fatalf("Subtotal(general) = %d, want 0", got)
	}
}

func TestSetQuantity_Coercion(t *testing.T) {
	l, _ := newTestLedger(t)

	for _, raw := range []string{"-5", "abc", "", "   ", "NaN", "Infinity"} {
		l.SetQuantity(General, 10000, "8")
		l.SetQuantity(General, 10000, raw)
		if q := l.Quantity(General, 10000); q != 0 {
			t.Errorf("SetQuantity(%q) -> %d, want 0", raw, q)
		}
	}

	l.SetQuantity(General, 10000, " 12 ")
	if q := l.Quantity(General, 10000); q != 12 {
		t.Errorf("SetQuantity(\" 12 \") -> %d, want 12", q)
	}
	l.SetQuantity(General, 10000, "4.9")
	if q := l.Quantity(General, 10000); q != 4 {
		t.Errorf("SetQuantity(\"4.9\") -> %d, want 4", q)
	}
	l.SetQuantity(General, 10000, "99999999999999999999")
	if q := l.Quantity(General, 10000); q != MaxQuantity {
		t.Errorf("SetQuantity(huge) -> %d, want %d", q, MaxQuantity)
	}
}

func TestSetQuantity_UnknownTargetsIgnored(t *testing.T) {
	l, mem := newTestLedger(t)

	l.SetQuantity("savings", 10000, "3")
	l.SetQuantity(General, 7000, "3")

	if l.GrandTotal() != 0 {
		t.Fatalf("GrandTotal = %d, want 0", l.GrandTotal())
	}
	if mem.Sets() != 0 {
		t.Fatalf("store writes = %d, want 0 for ignored edits", mem.Sets())
	}
}

func TestAdjust_Clamps(t *testing.T) {
	l, _ := newTestLedger(t)

	l.Adjust(Weekly, 2000, 2)
	l.Adjust(Weekly, 2000, 1)
	if q := l.Quantity(Weekly, 2000); q != 3 {
		t.Fatalf("after +2 +1 quantity = %d, want 3", q)
	}
	l.Adjust(Weekly, 2000, -10)
	if q := l.Quantity(Weekly, 2000); q != 0 {
		t.Fatalf("after -10 quantity = %d, want 0", q)
	}
}

func TestTransfer_Conservation(t *testing.T) {
	l, _ := newTestLedger(t)
	for i, d := range l.Denominations() {
		l.SetQuantity(General, d, fmt.Sprint(i+1))
		l.SetQuantity(Weekly, d, fmt.Sprint(2*i+3))
	}

	generalBefore := l.BucketTotal(General)
	weeklyBefore := l.BucketTotal(Weekly)
	grandBefore := l.GrandTotal()

	amount, ok := l.TransferWeeklyToGeneral()
	if !ok {
		t.Fatal("transfer skipped with non-empty weekly bucket")
	}
	if amount != weeklyBefore {
		t.Fatalf("amount = %d, want pre-transfer weekly total %d", amount, weeklyBefore)
	}
	if got := l.BucketTotal(Weekly); got != 0 {
		t.Fatalf("weekly total = %d, want 0", got)
	}
	if got := l.BucketTotal(General); got != generalBefore+weeklyBefore {
		t.Fatalf("general total = %d, want %d", got, generalBefore+weeklyBefore)
	}
	if got := l.GrandTotal(); got != grandBefore {
		t.Fatalf("grand total changed: %d -> %d", grandBefore, got)
	}
}

func TestTransfer_EmptyWeeklySkipped(t *testing.T) {
	l, mem := newTestLedger(t)
	l.SetQuantity(General, 50000, "1")
	writes := mem.Sets()

	amount, ok := l.TransferWeeklyToGeneral()
	if ok || amount != 0 {
		t.Fatalf("Transfer = (%d, %v), want (0, false)", amount, ok)
	}
	if len(l.History()) != 0 {
		t.Fatalf("history len = %d, want 0", len(l.History()))
	}
	if mem.Sets() != writes {
		t.Fatalf("skipped transfer wrote to the store")
	}
}

func TestTransfer_EmptyWeeklyLoggedWhenNotSkipping(t *testing.T) {
	opts := testOptions()
	opts.SkipEmptyTransfers = false
	l := Open(store.NewMemory(), opts)

	amount, ok := l.TransferWeeklyToGeneral()
	if !ok || amount != 0 {
		t.Fatalf("Transfer = (%d, %v), want (0, true)", amount, ok)
	}
	if len(l.History()) != 1 || l.History()[0].Amount != 0 {
		t.Fatalf("history = %+v, want one zero-amount entry", l.History())
	}
}

func TestTransfer_HistoryNewestFirst(t *testing.T) {
	l, _ := newTestLedger(t)

	l.SetQuantity(Weekly, 2000, "1")
	l.TransferWeeklyToGeneral()
	l.SetQuantity(Weekly, 5000, "1")
	l.TransferWeeklyToGeneral()

	h := l.History()
	if len(h) != 2 {
		t.Fatalf("history len = %d, want 2", len(h))
	}
	if h[0].Amount != 5000 || h[1].Amount != 2000 {
		t.Fatalf("history amounts = [%d, %d], want [5000, 2000]", h[0].Amount, h[1].Amount)
	}
	if h[0].ID == h[1].ID {
		t.Fatalf("history IDs not unique: %q", h[0].ID)
	}
}

func TestReset_DefaultKeepsHistoryAndPIN(t *testing.T) {
	l, _ := newTestLedger(t)
	if _, err := l.Unlock("123456"); err != nil {
		t.Fatal(err)
	}
	l.SetQuantity(Weekly, 10000, "2")
	l.TransferWeeklyToGeneral()
	l.SetQuantity(Weekly, 20000, "5")

	l.Reset(ResetPolicy{})

	if l.BucketTotal(General) != 0 || l.BucketTotal(Weekly) != 0 {
		t.Fatalf("totals after reset = (%d, %d), want (0, 0)", l.BucketTotal(General), l.BucketTotal(Weekly))
	}
	for _, d := range l.Denominations() {
		if l.Quantity(General, d) != 0 || l.Quantity(Weekly, d) != 0 {
			t.Fatalf("denomination %d not zeroed", d)
		}
	}
	if len(l.History()) != 1 {
		t.Fatalf("history len = %d, want 1 (kept)", len(l.History()))
	}
	if !l.HasPIN() {
		t.Fatal("PIN cleared by default reset")
	}
}

func TestReset_PolicyClearsHistoryAndPIN(t *testing.T) {
	l, _ := newTestLedger(t)
	_, _ = l.Unlock("123456")
	l.SetQuantity(Weekly, 10000, "2")
	l.TransferWeeklyToGeneral()

	l.Reset(ResetPolicy{ClearHistory: true, ClearPIN: true})

	if len(l.History()) != 0 {
		t.Fatalf("history len = %d, want 0", len(l.History()))
	}
	if l.HasPIN() {
		t.Fatal("PIN survived ClearPIN reset")
	}
}

func TestWipe_DeletesEntry(t *testing.T) {
	l, mem := newTestLedger(t)
	l.SetQuantity(General, 2000, "1")

	if err := l.Wipe(); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if _, ok, _ := mem.Get(DefaultKey); ok {
		t.Fatal("storage entry survived Wipe")
	}
	if l.GrandTotal() != 0 {
		t.Fatalf("GrandTotal after Wipe = %d, want 0", l.GrandTotal())
	}
}

func TestRoundTrip(t *testing.T) {
	l, mem := newTestLedger(t)
	l.SetQuantity(General, 10000, "3")
	l.SetQuantity(Weekly, 5000, "4")
	l.TransferWeeklyToGeneral()
	l.SetQuantity(Weekly, 100000, "2")
	_, _ = l.Unlock("654321")
	if err := l.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := Open(mem, testOptions())

	want := l.State()
	got := fresh.State()
	for _, d := range l.Denominations() {
		if got.General[d] != want.General[d] || got.Weekly[d] != want.Weekly[d] {
			t.Fatalf("denomination %d: got (%d, %d), want (%d, %d)",
				d, got.General[d], got.Weekly[d], want.General[d], want.Weekly[d])
		}
	}
	if len(got.History) != len(want.History) {
		t.Fatalf("history len = %d, want %d", len(got.History), len(want.History))
	}
	for i := range want.History {
		if got.History[i].ID != want.History[i].ID ||
			got.History[i].Amount != want.History[i].Amount ||
			!got.History[i].Timestamp.Equal(want.History[i].Timestamp) {
			t.Fatalf("history[%d] = %+v, want %+v", i, got.History[i], want.History[i])
		}
	}
	if got.PIN != "654321" {
		t.Fatalf("PIN = %q, want 654321", got.PIN)
	}
}

func TestOpen_CorruptBlobTreatedAsAbsent(t *testing.T) {
	for _, raw := range []string{"{not json", "[1,2,3]", `"text"`, `{"version":99,"general":{"2000":5}}`} {
		mem := store.NewMemory()
		_ = mem.Set(DefaultKey, raw)

		l := Open(mem, testOptions())
		if l.GrandTotal() != 0 || len(l.History()) != 0 {
			t.Errorf("blob %q: GrandTotal = %d, history = %d, want empty state", raw, l.GrandTotal(), len(l.History()))
		}
	}
}

func TestOpen_CoercesStoredValues(t *testing.T) {
	mem := store.NewMemory()
	_ = mem.Set(DefaultKey, `{
		"general": {"2000": "3", "5000": -4, "10000": "abc", "20000": null, "50000": 1.5, "999": 7},
		"weekly": {"100000": true},
		"history": [{"date": "17/10/2026", "amount": 20000}, {"amount": "x"}],
		"pin": 123456
	}`)

	l := Open(mem, testOptions())

	checks := []struct {
		d    Denomination
		want int64
	}{
		{2000, 3}, {5000, 0}, {10000, 0}, {20000, 0}, {50000, 1}, {100000, 0},
	}
	for _, c := range checks {
		if got := l.Quantity(General, c.d); got != c.want {
			t.Errorf("general[%d] = %d, want %d", c.d, got, c.want)
		}
	}
	if got := l.Quantity(Weekly, 100000); got != 0 {
		t.Errorf("weekly[100000] = %d, want 0", got)
	}
	if _, ok := l.State().General[999]; ok {
		t.Error("denomination outside the set was loaded")
	}

	h := l.History()
	if len(h) != 2 {
		t.Fatalf("history len = %d, want 2", len(h))
	}
	if h[0].Amount != 20000 || h[0].Timestamp.Day() != 17 || h[0].Timestamp.Month() != time.October {
		t.Errorf("legacy entry = %+v, want 20000 on 17 Oct", h[0])
	}
	if h[0].ID == "" || h[1].ID == "" {
		t.Error("legacy entries were not given IDs")
	}
	if h[1].Amount != 0 {
		t.Errorf("malformed amount = %d, want 0", h[1].Amount)
	}
	if l.HasPIN() {
		t.Error("numeric pin field accepted, want ignored")
	}
}

func TestOpen_StoreReadErrorStartsEmpty(t *testing.T) {
	l := Open(failingStore{err: errors.New("disk gone")}, testOptions())
	if l.GrandTotal() != 0 {
		t.Fatalf("GrandTotal = %d, want 0", l.GrandTotal())
	}
}

func TestSaveFailure_KeepsMemoryState(t *testing.T) {
	boom := errors.New("quota exceeded")
	l := Open(failingStore{err: boom}, testOptions())

	l.SetQuantity(General, 20000, "2")

	if got := l.Quantity(General, 20000); got != 2 {
		t.Fatalf("quantity = %d, want 2 despite failed write", got)
	}
	if err := l.Flush(); !errors.Is(err, boom) {
		t.Fatalf("Flush = %v, want %v", err, boom)
	}
	if err := l.Save(); !errors.Is(err, boom) {
		t.Fatalf("Save = %v, want %v", err, boom)
	}
}

func TestEncodedBlobFields(t *testing.T) {
	l, mem := newTestLedger(t)
	l.SetQuantity(Weekly, 2000, "1")
	l.TransferWeeklyToGeneral()

	raw, ok, _ := mem.Get(DefaultKey)
	if !ok {
		t.Fatal("nothing stored")
	}
	for _, field := range []string{`"version":1`, `"general"`, `"weekly"`, `"history"`, `"amount":2000`} {
		if !strings.Contains(raw, field) {
			t.Errorf("blob %s missing %s", raw, field)
		}
	}
	if strings.Contains(raw, `"pin"`) {
		t.Errorf("blob %s carries a pin field with no PIN set", raw)
	}
}

func TestParseDenomination(t *testing.T) {
	l, _ := newTestLedger(t)

	for _, s := range []string{"20000", "20.000", "20,000", "$20.000"} {
		d, err := l.ParseDenomination(s)
		if err != nil || d != 20000 {
			t.Errorf("ParseDenomination(%q) = (%d, %v), want 20000", s, d, err)
		}
	}
	if _, err := l.ParseDenomination("3000"); !errors.Is(err, ErrUnknownDenomination) {
		t.Errorf("ParseDenomination(3000) err = %v, want ErrUnknownDenomination", err)
	}
}

func TestParseBucket(t *testing.T) {
	if b, err := ParseBucket("Weekly"); err != nil || b != Weekly {
		t.Fatalf("ParseBucket(Weekly) = (%q, %v)", b, err)
	}
	if b, err := ParseBucket("g"); err != nil || b != General {
		t.Fatalf("ParseBucket(g) = (%q, %v)", b, err)
	}
	if _, err := ParseBucket("savings"); !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("ParseBucket(savings) err = %v, want ErrUnknownBucket", err)
	}
}

func TestStateIsACopy(t *testing.T) {
	l, _ := newTestLedger(t)
	l.SetQuantity(General, 2000, "1")

	st := l.State()
	st.General[2000] = 99

	if q := l.Quantity(General, 2000); q != 1 {
		t.Fatalf("mutating State() copy changed the ledger: quantity = %d", q)
	}
}

func TestRoundTrip_SubSecondTimestamp(t *testing.T) {
	at := time.Date(2026, 10, 18, 20, 0, 0, 123456789, time.UTC)
	mem := store.NewMemory()
	opts := testOptions()
	opts.Now = func() time.Time { return at }

	l := Open(mem, opts)
	l.SetQuantity(Weekly, 20000, "1")
	if _, ok := l.TransferWeeklyToGeneral(); !ok {
		t.Fatal("transfer skipped")
	}

	got := Open(mem, opts).History()
	if len(got) != 1 {
		t.Fatalf("history len = %d, want 1", len(got))
	}
	if !got[0].Timestamp.Equal(at) {
		t.Fatalf("timestamp after reload = %v, want %v", got[0].Timestamp, at)
	}
}

// flakyStore fails Set while failing is true.
type flakyStore struct {
	*store.Memory
	failing bool
}

func (f *flakyStore) Set(key, value string) error {
	if f.failing {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func TestSaveError_ClearedByLaterDebouncedWrite(t *testing.T) {
	fs := &flakyStore{Memory: store.NewMemory(), failing: true}
	opts := testOptions()
	opts.Debounce = time.Hour
	l := Open(fs, opts)

	l.SetQuantity(General, 2000, "1")
	if err := l.Save(); err == nil {
		t.Fatal("Save should fail while the store is failing")
	}

	fs.failing = false
	l.SetQuantity(General, 2000, "2")
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush after a successful write = %v, want nil", err)
	}
	if err := l.LastSaveErr(); err != nil {
		t.Fatalf("LastSaveErr = %v, want nil", err)
	}
	if got := Open(fs.Memory, testOptions()).Quantity(General, 2000); got != 2 {
		t.Fatalf("stored quantity = %d, want 2", got)
	}
}

func TestSaveError_ClearedByLaterSave(t *testing.T) {
	fs := &flakyStore{Memory: store.NewMemory(), failing: true}
	opts := testOptions()
	opts.Debounce = time.Hour
	l := Open(fs, opts)

	l.SetQuantity(General, 5000, "1")
	if err := l.Flush(); err == nil {
		t.Fatal("Flush should fail while the store is failing")
	}

	fs.failing = false
	if err := l.Save(); err != nil {
		t.Fatalf("Save = %v", err)
	}
	if err := l.LastSaveErr(); err != nil {
		t.Fatalf("LastSaveErr = %v, want nil", err)
	}
}

func TestTransfer_SaturatesLikeLoad(t *testing.T) {
	mem := store.NewMemory()
	blob := `{"version":1,"general":{"2000":999999999},"weekly":{"2000":5},"history":[]}`
	if err := mem.Set(DefaultKey, blob); err != nil {
		t.Fatalf("seed: %v", err)
	}

	l := Open(mem, testOptions())
	amount, ok := l.TransferWeeklyToGeneral()
	if !ok || amount != 10_000 {
		t.Fatalf("transfer = (%d, %v), want (10000, true)", amount, ok)
	}
	if got := l.Quantity(General, 2000); got != maxStoredQuantity {
		t.Fatalf("general 2000 = %d, want %d", got, maxStoredQuantity)
	}

	if got := Open(mem, testOptions()).Quantity(General, 2000); got != l.Quantity(General, 2000) {
		t.Fatalf("reloaded general 2000 = %d, in memory %d", got, l.Quantity(General, 2000))
	}
}
