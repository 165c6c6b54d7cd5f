package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"countdown/internal/countdown"
	"countdown/internal/message"
	logx "countdown/pkg/logx"
)

func TestDeliverSuccess(t *testing.T) {
	var got message.Payload
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		if r.ContentLength != int64(len(b)) {
			t.Errorf("content-length = %d, body = %d", r.ContentLength, len(b))
		}
		if err := json.Unmarshal(b, &got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := message.Format(countdown.Remaining{Days: 3, Hours: 1})
	body, err := c.Deliver(context.Background(), p)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	if len(got.Blocks) != len(p.Blocks) {
		t.Fatalf("server saw %d blocks, want %d", len(got.Blocks), len(p.Blocks))
	}
}

func TestDeliverReturnsWholeBody(t *testing.T) {
	ok := strings.Repeat("a", 100<<10)
	bad := strings.Repeat("b", 80<<10)
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status.Load() == http.StatusOK {
			_, _ = w.Write([]byte(ok))
			return
		}
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(bad))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c, err := New(Config{URL: srv.URL}, logx.NewWriter(&logs, "debug"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := message.Format(countdown.Remaining{Days: 1})

	body, err := c.Deliver(context.Background(), p)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(body) != len(ok) {
		t.Fatalf("body len = %d, want %d", len(body), len(ok))
	}
	if !strings.Contains(logs.String(), `"resp_bytes":`+strconv.Itoa(len(ok))) || !strings.Contains(logs.String(), `"req_bytes":`) {
		t.Fatalf("debug log = %s", logs.String())
	}

	status.Store(http.StatusBadRequest)
	_, err = c.Deliver(context.Background(), p)
	var rej *RemoteRejection
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want RemoteRejection", err)
	}
	if len(rej.Body) != len(bad) {
		t.Fatalf("rejection body len = %d, want %d", len(rej.Body), len(bad))
	}
}

func TestDeliverRemoteRejection(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate_limited"))
	}))
	defer srv.Close()

	c, err := New(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Deliver(context.Background(), message.Format(countdown.Remaining{Reached: true}))

	var rej *RemoteRejection
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v (%T), want *RemoteRejection", err, err)
	}
	if rej.StatusCode != http.StatusTooManyRequests || string(rej.Body) != "rate_limited" {
		t.Fatalf("rejection = %d %q", rej.StatusCode, rej.Body)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly one (no retry)", calls)
	}
}

func TestDeliverNoContentIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := New(Config{URL: srv.URL}, logx.Nop())
	_, err := c.Deliver(context.Background(), message.Payload{})
	var rej *RemoteRejection
	if !errors.As(err, &rej) || rej.StatusCode != http.StatusNoContent {
		t.Fatalf("err = %v, want rejection with 204", err)
	}
}

func TestDeliverTransportError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c, _ := New(Config{URL: "http://" + addr + "/hook", Timeout: 2 * time.Second}, logx.Nop())
	_, err = c.Deliver(context.Background(), message.Payload{})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v (%T), want *TransportError", err, err)
	}
	if errors.Unwrap(te) == nil {
		t.Fatalf("transport error has no cause")
	}
}

func TestDeliverCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, _ := New(Config{URL: srv.URL, RatePerSec: 1}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Deliver(ctx, message.Payload{})
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want transport error wrapping context.Canceled", err)
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{URL: "  "}, logx.Nop()); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("err = %v", err)
	}
}

func TestRemoteRejectionMessage(t *testing.T) {
	e := &RemoteRejection{StatusCode: 500, Body: []byte("internal " + strconv.Itoa(42))}
	if e.Error() != "webhook rejected: status 500: internal 42" {
		t.Fatalf("Error() = %q", e.Error())
	}
}
