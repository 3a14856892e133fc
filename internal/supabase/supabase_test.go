package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sellexa/go-marketplace-backend/internal/domain"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "anon-key", 5*time.Second)
}

// ---------- transport ----------

func TestClientRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.Message{{ID: "m1"}})
	})

	out, err := NewMessages(c).List(context.Background(), "t1")
	if err != nil {
		t.Fatalf("List after retries: %v", err)
	}
	if len(out) != 1 || out[0].ID != "m1" {
		t.Fatalf("unexpected rows: %+v", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (two 500s then success)", calls)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var mu sync.Mutex
	var calls int
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"no such row"}`))
	})

	_, err := NewProducts(c).Get(context.Background(), "p1")
	var be *Error
	if !errors.As(err, &be) || be.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want backend 404", err)
	}
	if be.Message != "no such row" {
		t.Fatalf("message = %q, PostgREST body not normalized", be.Message)
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound should report true")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("calls = %d, 4xx must not retry", calls)
	}
}

func TestClientSetsAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth, gotPrefer string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		_ = json.NewEncoder(w).Encode([]domain.Message{{ID: "m1"}})
	})

	if _, err := NewMessages(c).Send(context.Background(), "t1", "u1", "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAPIKey != "anon-key" || gotAuth != "Bearer anon-key" {
		t.Fatalf("auth headers = %q / %q", gotAPIKey, gotAuth)
	}
	if gotPrefer != "return=representation" {
		t.Fatalf("Prefer = %q, mutations must request the representation", gotPrefer)
	}
}

// ---------- gateways ----------

func TestMessagesSendPostsRow(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_ = json.NewEncoder(w).Encode([]domain.Message{{ID: "m9", ThreadID: "t1", Body: "hi"}})
	})

	m, err := NewMessages(c).Send(context.Background(), "t1", "u1", "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/rest/v1/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["thread_id"] != "t1" || gotBody["sender_id"] != "u1" || gotBody["body"] != "hi" {
		t.Fatalf("body = %+v", gotBody)
	}
	if m.ID != "m9" {
		t.Fatalf("message = %+v", m)
	}
}

func TestMessagesSendEmptyRepresentationIsError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	if _, err := NewMessages(c).Send(context.Background(), "t1", "u1", "hi"); err == nil {
		t.Fatal("empty insert representation should error")
	}
}

func TestConversationsGetFiltersUserList(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/get_user_conversations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]domain.Conversation{
			{ThreadID: "t1"}, {ThreadID: "t2"},
		})
	})
	g := NewConversations(c)

	conv, err := g.Get(context.Background(), "t2", "u1")
	if err != nil || conv.ThreadID != "t2" {
		t.Fatalf("conv = %+v, err = %v", conv, err)
	}

	if _, err := g.Get(context.Background(), "t9", "u1"); !IsNotFound(err) {
		t.Fatalf("unknown thread should be a 404, got %v", err)
	}
}

func TestTypingSetCallsRPC(t *testing.T) {
	var gotPath string
	var gotArgs map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotArgs)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := NewTyping(c).Set(context.Background(), "t1", "u1", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if gotPath != "/rest/v1/rpc/set_typing_indicator" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotArgs["thread_uuid"] != "t1" || gotArgs["typing"] != true {
		t.Fatalf("args = %+v", gotArgs)
	}
}

// ---------- storage URLs ----------

func TestPublicURLConcatenation(t *testing.T) {
	c := NewClient("http://backend.local/", "k", time.Second)
	got := c.PublicURL(ProductImagesBucket, "listings/a.jpg")
	want := "http://backend.local/storage/v1/object/public/product-images/listings/a.jpg"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
	if c.PublicURL(ProductImagesBucket, "") != "" {
		t.Fatal("empty path must yield empty URL")
	}
}

// ---------- auth ----------

func TestSessionTreatsUnauthorizedAsSignedOut(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	u, err := NewAuth(c).Session(context.Background())
	if err != nil || u != nil {
		t.Fatalf("u = %+v, err = %v; a 401 is no session, not a failure", u, err)
	}
}

func TestWatchEmitsSessionTransitions(t *testing.T) {
	var mu sync.Mutex
	signedIn := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		in := signedIn
		mu.Unlock()
		if !in {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.User{ID: "u1", Email: "ada@example.com"})
	})
	a := NewAuth(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Watch(ctx, 10*time.Millisecond)

	next := func() domain.AuthEvent {
		select {
		case ev := <-a.Events():
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no auth event in time")
			return domain.AuthEvent{}
		}
	}

	if ev := next(); ev.Event != domain.AuthInitialSession || ev.User != nil {
		t.Fatalf("first event = %+v, want empty INITIAL_SESSION", ev)
	}

	mu.Lock()
	signedIn = true
	mu.Unlock()
	if ev := next(); ev.Event != domain.AuthSignedIn || ev.User == nil || ev.User.ID != "u1" {
		t.Fatalf("event = %+v, want SIGNED_IN for u1", ev)
	}

	// While the session persists, later checks report a refresh, not a
	// second sign-in.
	if ev := next(); ev.Event != domain.AuthTokenRefreshed {
		t.Fatalf("event = %+v, want TOKEN_REFRESHED", ev)
	}

	mu.Lock()
	signedIn = false
	mu.Unlock()
	for {
		ev := next()
		if ev.Event == domain.AuthTokenRefreshed {
			continue
		}
		if ev.Event != domain.AuthSignedOut || ev.User != nil {
			t.Fatalf("event = %+v, want SIGNED_OUT", ev)
		}
		break
	}
}
