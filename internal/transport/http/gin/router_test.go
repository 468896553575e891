package httpgin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/attendly/attendly/internal/repository/memory"
	"github.com/attendly/attendly/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svcs := service.NewServices(
		service.Stores{
			Allocation:  store,
			Events:      store,
			Subscribers: store,
		},
		nil, nil, nil, nil,
		service.Config{},
	)

	return NewRouter(svcs, nil, nil)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createActiveEvent(t *testing.T, r *gin.Engine, capacity int, waitlist bool) EventResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/events", CreateEventRequest{
		Title:           "gophercon",
		Date:            time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		Status:          "active",
		Capacity:        capacity,
		WaitlistEnabled: waitlist,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: status %d body %s", w.Code, w.Body.String())
	}
	return decode[EventResponse](t, w)
}

func createSubscriber(t *testing.T, r *gin.Engine, email string) SubscriberResponse {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/subscribers", CreateSubscriberRequest{
		Name:  "gopher",
		Email: email,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create subscriber: status %d body %s", w.Code, w.Body.String())
	}
	return decode[SubscriberResponse](t, w)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestEventLifecycle(t *testing.T) {
	r := newTestRouter(t)

	ev := createActiveEvent(t, r, 10, true)
	if ev.SeatsLeft != 10 {
		t.Fatalf("seats_left = %d, want 10", ev.SeatsLeft)
	}

	w := doJSON(t, r, http.MethodGet, "/events/"+ev.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, "/events/"+ev.ID, map[string]any{"title": "renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	if got := decode[EventResponse](t, w); got.Title != "renamed" {
		t.Fatalf("title = %q", got.Title)
	}

	w = doJSON(t, r, http.MethodGet, "/events?status=active", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	if evs := decode[[]EventResponse](t, w); len(evs) != 1 {
		t.Fatalf("list len = %d", len(evs))
	}

	w = doJSON(t, r, http.MethodDelete, "/events/"+ev.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/events/"+ev.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", w.Code)
	}
}

func TestEventValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/events", map[string]any{
		"title":    "broken",
		"date":     "tomorrow-ish",
		"capacity": 5,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/events/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad uuid: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/events?status=archived", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: status %d", w.Code)
	}
}

func TestRegistrationFlow(t *testing.T) {
	r := newTestRouter(t)

	ev := createActiveEvent(t, r, 1, true)
	first := createSubscriber(t, r, "first@example.com")
	second := createSubscriber(t, r, "second@example.com")

	regPath := "/events/" + ev.ID + "/registrations"

	w := doJSON(t, r, http.MethodPost, regPath, CreateRegistrationRequest{SubscriberID: first.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	if reg := decode[RegistrationResponse](t, w); reg.Status != "confirmed" {
		t.Fatalf("status = %q, want confirmed", reg.Status)
	}

	// Same pair again is a conflict.
	w = doJSON(t, r, http.MethodPost, regPath, CreateRegistrationRequest{SubscriberID: first.ID})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate: status %d", w.Code)
	}

	// Event is full, so the second subscriber lands on the waitlist.
	w = doJSON(t, r, http.MethodPost, regPath, CreateRegistrationRequest{SubscriberID: second.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("waitlist register: status %d body %s", w.Code, w.Body.String())
	}
	reg := decode[RegistrationResponse](t, w)
	if reg.Status != "waitlisted" || reg.WaitlistRank == nil || *reg.WaitlistRank != 1 {
		t.Fatalf("waitlist reg = %+v", reg)
	}

	w = doJSON(t, r, http.MethodGet, regPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	if regs := decode[[]RegistrationResponse](t, w); len(regs) != 2 {
		t.Fatalf("list len = %d", len(regs))
	}

	// Cancelling the confirmed seat promotes the waitlist head.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("%s/%s", regPath, first.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unregister: status %d body %s", w.Code, w.Body.String())
	}
	out := decode[UnregisterResponse](t, w)
	if out.Promoted == nil || out.Promoted.SubscriberID != second.ID {
		t.Fatalf("promoted = %+v, want second subscriber", out.Promoted)
	}
	if out.Promoted.Status != "confirmed" {
		t.Fatalf("promoted status = %q", out.Promoted.Status)
	}

	w = doJSON(t, r, http.MethodGet, "/subscribers/"+second.ID+"/registrations?status=confirmed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("subscriber list: status %d", w.Code)
	}
	if regs := decode[[]RegistrationResponse](t, w); len(regs) != 1 {
		t.Fatalf("subscriber list len = %d", len(regs))
	}
}

func TestRegistrationErrors(t *testing.T) {
	r := newTestRouter(t)

	sub := createSubscriber(t, r, "a@example.com")

	w := doJSON(t, r, http.MethodPost, "/events/00000000-0000-0000-0000-000000000000/registrations",
		CreateRegistrationRequest{SubscriberID: sub.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown event: status %d", w.Code)
	}

	ev := createActiveEvent(t, r, 1, false)
	regPath := "/events/" + ev.ID + "/registrations"

	w = doJSON(t, r, http.MethodPost, regPath,
		CreateRegistrationRequest{SubscriberID: "00000000-0000-0000-0000-000000000000"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown subscriber: status %d body %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, r, http.MethodPost, regPath, CreateRegistrationRequest{SubscriberID: sub.ID}); w.Code != http.StatusCreated {
		t.Fatalf("fill: status %d", w.Code)
	}

	other := createSubscriber(t, r, "b@example.com")
	w = doJSON(t, r, http.MethodPost, regPath, CreateRegistrationRequest{SubscriberID: other.ID})
	if w.Code != http.StatusConflict {
		t.Fatalf("full without waitlist: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, regPath+"/"+other.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unregister unknown: status %d", w.Code)
	}
}

func TestSubscriberEndpoints(t *testing.T) {
	r := newTestRouter(t)

	sub := createSubscriber(t, r, "ada@example.com")

	w := doJSON(t, r, http.MethodGet, "/subscribers/"+sub.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/subscribers", CreateSubscriberRequest{
		Name:  "other",
		Email: "ada@example.com",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/subscribers", map[string]any{"name": "x", "email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad email: status %d", w.Code)
	}
}
