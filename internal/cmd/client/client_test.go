package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type stubAPI struct {
	mu         sync.Mutex
	expireBusy bool
	lastBody   map[string]any
	lastQuery  string
}

func (s *stubAPI) record(r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	s.lastBody = body
	s.lastQuery = r.URL.RawQuery
	s.mu.Unlock()
}

func (s *stubAPI) body() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

func (s *stubAPI) query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func (s *stubAPI) setBusy(b bool) {
	s.mu.Lock()
	s.expireBusy = b
	s.mu.Unlock()
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"subscriptions": []map[string]any{
			{"key": "default/orders/0/billing", "ttl_seconds": 60, "backlog": 3, "expired_total": 2},
		}})
	})
	mux.HandleFunc("/v1/subscriptions/expire", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		s.mu.Lock()
		busy := s.expireBusy
		s.mu.Unlock()
		if busy {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "expiry check already in progress"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	})
	mux.HandleFunc("/v1/subscriptions/rates", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"rates": []map[string]any{{"key": "default/orders/0/billing", "expiry_rate": 1.5}}})
	})
	mux.HandleFunc("/v1/subscriptions/ack", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/subscriptions/add", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"key": "default/orders/0/audit", "ttl_seconds": 90, "backlog": 4})
	})
	mux.HandleFunc("/v1/subscriptions/remove", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/publish", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"sequence": 7})
	})
	mux.HandleFunc("/v1/backlog", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if r.URL.Query().Get("key") == "missing/x/0/y" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown subscription"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"key":     "default/orders/0/billing",
			"backlog": 2,
			"items": []map[string]any{
				{"sequence": 1, "payload": []byte(`{"amount":12}`)},
				{"sequence": 2, "payload": []byte("plain")},
			},
		})
	})
	return mux
}

func runCmd(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return srv.URL })
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSubsList(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "subs", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"key": "default/orders/0/billing"`) || !strings.Contains(out, `"expired_total": 2`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSubsExpire(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "subs", "expire", "--key", "default/orders/0/billing", "--ttl", "30")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "started") {
		t.Fatalf("unexpected output: %s", out)
	}
	if stub.body()["ttl_seconds"] != float64(30) {
		t.Fatalf("ttl not sent: %v", stub.body())
	}

	stub.setBusy(true)
	out, err = runCmd(t, srv, "subs", "expire", "--key", "default/orders/0/billing")
	if err != nil {
		t.Fatalf("busy execute: %v", err)
	}
	if !strings.Contains(out, "already in progress") {
		t.Fatalf("unexpected output: %s", out)
	}

	if _, err := runCmd(t, srv, "subs", "expire"); err == nil {
		t.Fatalf("expected error without --key")
	}
}

func TestSubsRatesAndAck(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "subs", "rates")
	if err != nil {
		t.Fatalf("rates: %v", err)
	}
	if !strings.Contains(out, "default/orders/0/billing\t1.500 msg/s") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = runCmd(t, srv, "subs", "ack", "--key", "default/orders/0/billing", "--sequence", "5")
	if err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !strings.Contains(out, "acknowledged") || stub.body()["sequence"] != float64(5) {
		t.Fatalf("ack output=%q body=%v", out, stub.body())
	}
}

func TestPublishPrintsSequence(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "publish", "--topic", "orders", "--data", "hi", "--prop", "tenant=acme")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "sequence: 7") {
		t.Fatalf("unexpected output: %s", out)
	}
	props, _ := stub.body()["properties"].(map[string]any)
	if props["tenant"] != "acme" || stub.body()["namespace"] != "default" {
		t.Fatalf("unexpected body: %v", stub.body())
	}

	if _, err := runCmd(t, srv, "publish", "--topic", "orders", "--prop", "bad"); err == nil {
		t.Fatalf("expected error for malformed --prop")
	}
}

func TestBacklogDecodesPayloads(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "backlog", "--key", "default/orders/0/billing", "--limit", "5", "--filter", "size > 1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, `"payload_json":{"amount":12}`) || !strings.Contains(out, `"payload_text":"plain"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "backlog: 2") {
		t.Fatalf("missing total: %s", out)
	}
	if !strings.Contains(stub.query(), "limit=5") || !strings.Contains(stub.query(), "filter=size") {
		t.Fatalf("query: %s", stub.query())
	}

	_, err = runCmd(t, srv, "backlog", "--key", "missing/x/0/y")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestSubsAddRemove(t *testing.T) {
	stub := &stubAPI{}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	out, err := runCmd(t, srv, "subs", "add", "--key", "default/orders/0/audit", "--ttl", "90")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "added default/orders/0/audit ttl=90s backlog=4") {
		t.Fatalf("unexpected output: %q", out)
	}
	if stub.body()["ttl_seconds"] != float64(90) {
		t.Fatalf("ttl not sent: %v", stub.body())
	}

	out, err = runCmd(t, srv, "subs", "remove", "--key", "default/orders/0/audit")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "removed default/orders/0/audit") || stub.body()["key"] != "default/orders/0/audit" {
		t.Fatalf("remove output=%q body=%v", out, stub.body())
	}
}
