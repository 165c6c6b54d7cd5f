package journal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"countdown/internal/countdown"
	"countdown/internal/driver"
	"countdown/internal/eventbus"
	logx "countdown/pkg/logx"
)

func sample(seq uint64, kind string) Record {
	return Record{
		TickID: "tick-" + kind,
		Seq:    seq,
		At:     time.Date(2026, 10, 18, 10, 0, int(seq), 0, time.UTC),
		Kind:   kind,
		Days:   74,
		Clock:  "13:00:00",
	}
}

func TestFileStoreAppendRecent(t *testing.T) {
	fs := afero.NewMemMapFs()
	st, err := OpenFile(fs, "/var/lib/countdown/journal.jsonl", logx.Nop())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i, k := range []string{driver.KindDelivered, driver.KindRejected, driver.KindTransport} {
		if err := st.Append(ctx, sample(uint64(i+1), k)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := st.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Kind != driver.KindTransport || got[1].Kind != driver.KindRejected {
		t.Fatalf("Recent = %+v", got)
	}

	all, _ := st.Recent(ctx, 10)
	if len(all) != 3 {
		t.Fatalf("Recent(10) = %d records", len(all))
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	st, err := OpenFile(fs, "/j.jsonl", logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_ = st.Append(ctx, sample(1, driver.KindDelivered))
	_ = st.Close()

	if err := st.Append(ctx, sample(2, driver.KindDelivered)); !errors.Is(err, ErrClosed) {
		t.Fatalf("append after close: %v", err)
	}

	st, err = OpenFile(fs, "/j.jsonl", logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	_ = st.Append(ctx, sample(3, driver.KindPanic))
	got, _ := st.Recent(ctx, 5)
	if len(got) != 2 || got[0].Seq != 3 || got[1].Seq != 1 {
		t.Fatalf("Recent = %+v", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "journal.db"), BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	rej := sample(1, driver.KindRejected)
	rej.StatusCode = 429
	rej.Error = "webhook rejected: status 429: slow down"
	if err := st.Append(ctx, rej); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ok := sample(2, driver.KindDelivered)
	ok.Reached = true
	if err := st.Append(ctx, ok); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent = %d records", len(got))
	}
	if !got[0].Reached || got[0].Seq != 2 || got[0].StatusCode != 0 {
		t.Fatalf("newest = %+v", got[0])
	}
	if got[1].StatusCode != 429 || got[1].Error == "" || !got[1].At.Equal(rej.At) {
		t.Fatalf("oldest = %+v", got[1])
	}
}

func TestSQLiteCloseDuringAppends(t *testing.T) {
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "journal.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				err := st.Append(ctx, sample(uint64(i), driver.KindDelivered))
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil {
					t.Errorf("Append: %v", err)
					return
				}
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()

	if _, err := st.Recent(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Recent after close: %v", err)
	}
}

func TestOpenDisabledAndUnknown(t *testing.T) {
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if st != nil || err != nil {
			t.Fatalf("driver %q: st=%v err=%v", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "mongo"}, logx.Nop()); err == nil {
		t.Fatalf("unknown driver accepted")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatalf("file driver without path accepted")
	}
}

func TestNewRedisStoreDefaults(t *testing.T) {
	s := newRedisStore(nil, " ", 0, logx.Nop())
	if s.key != defaultRedisKey || s.maxLen != defaultRedisMaxLen {
		t.Fatalf("defaults = %q %d", s.key, s.maxLen)
	}
}

func TestRecorderWritesTickEvents(t *testing.T) {
	st, err := OpenFile(afero.NewMemMapFs(), "/r.jsonl", logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = NewRecorder(st, logx.Nop()).Run(ctx, events)
		close(done)
	}()

	bus.Publish(eventbus.Event{Type: driver.EventDelivered, Data: driver.TickEvent{
		TickID:    "abc",
		Seq:       1,
		Kind:      driver.KindDelivered,
		Remaining: countdown.Remaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		Took:      1500 * time.Millisecond,
	}})
	bus.Publish(eventbus.Event{Type: driver.EventStopped, Data: driver.StopEvent{Reason: driver.StopReached}})
	unsub()
	<-done

	got, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("records = %+v", got)
	}
	r := got[0]
	if r.TickID != "abc" || r.Clock != "03:04:05" || r.Days != 2 || r.TookMS != 1500 {
		t.Fatalf("record = %+v", r)
	}
}
