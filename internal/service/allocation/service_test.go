package allocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/repository"
	"github.com/attendly/attendly/internal/repository/memory"
)

func newTestService(t *testing.T, store repository.AllocationStore) *Service {
	t.Helper()
	return New(store, nil, nil, nil, nil, Config{
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	})
}

func seedEvent(t *testing.T, store *memory.Store, capacity int, waitlist bool, waitlistCap int) uuid.UUID {
	t.Helper()

	ev := &domain.Event{
		ID:               uuid.New(),
		Title:            "gophercon",
		Date:             time.Now().Add(24 * time.Hour),
		Status:           domain.EventActive,
		Capacity:         capacity,
		WaitlistEnabled:  waitlist,
		WaitlistCapacity: waitlistCap,
		CreatedAt:        time.Now().UTC(),
	}
	if err := store.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return ev.ID
}

func seedSubscriber(t *testing.T, store *memory.Store) uuid.UUID {
	t.Helper()

	sub := &domain.Subscriber{
		ID:        uuid.New(),
		Name:      "gopher",
		Email:     uuid.NewString() + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateSubscriber(context.Background(), sub); err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}
	return sub.ID
}

func TestRegisterConfirmsWhileSeatsRemain(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 2, true, 0)

	for i := 0; i < 2; i++ {
		reg, err := svc.Register(ctx, seedSubscriber(t, store), eventID, "")
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if reg.Status != domain.RegistrationConfirmed {
			t.Fatalf("register %d: status = %s, want confirmed", i, reg.Status)
		}
		if reg.WaitlistRank != nil {
			t.Fatalf("register %d: confirmed registration has rank %d", i, *reg.WaitlistRank)
		}
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != 2 {
		t.Fatalf("attendees = %d, want 2", ev.CurrentAttendees)
	}
}

func TestRegisterWaitlistsWhenFull(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	for want := 1; want <= 3; want++ {
		reg, err := svc.Register(ctx, seedSubscriber(t, store), eventID, "")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if reg.Status != domain.RegistrationWaitlisted {
			t.Fatalf("status = %s, want waitlisted", reg.Status)
		}
		if reg.WaitlistRank == nil || *reg.WaitlistRank != want {
			t.Fatalf("rank = %v, want %d", reg.WaitlistRank, want)
		}
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != 1 {
		t.Fatalf("attendees = %d, want 1; waitlisting must not consume seats", ev.CurrentAttendees)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 5, true, 0)
	subID := seedSubscriber(t, store)

	if _, err := svc.Register(ctx, subID, eventID, ""); err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := svc.Register(ctx, subID, eventID, ""); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("second register = %v, want ErrAlreadyRegistered", err)
	}

	// A waitlisted registration blocks re-registration the same way.
	fullEventID := seedEvent(t, store, 1, true, 0)
	if _, err := svc.Register(ctx, seedSubscriber(t, store), fullEventID, ""); err != nil {
		t.Fatalf("fill event: %v", err)
	}
	waitlisted := seedSubscriber(t, store)
	if _, err := svc.Register(ctx, waitlisted, fullEventID, ""); err != nil {
		t.Fatalf("waitlist register: %v", err)
	}
	if _, err := svc.Register(ctx, waitlisted, fullEventID, ""); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("waitlisted re-register = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegisterRejectsInactiveEvent(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	subID := seedSubscriber(t, store)

	for _, status := range []domain.EventStatus{domain.EventDraft, domain.EventCancelled} {
		ev := &domain.Event{
			ID:       uuid.New(),
			Title:    "closed",
			Date:     time.Now().Add(24 * time.Hour),
			Status:   status,
			Capacity: 10,
		}
		if err := store.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := svc.Register(ctx, subID, ev.ID, ""); !errors.Is(err, ErrEventInactive) {
			t.Fatalf("status %s: err = %v, want ErrEventInactive", status, err)
		}
	}

	past := &domain.Event{
		ID:       uuid.New(),
		Title:    "yesterday",
		Date:     time.Now().Add(-time.Hour),
		Status:   domain.EventActive,
		Capacity: 10,
	}
	if err := store.CreateEvent(ctx, past); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Register(ctx, subID, past.ID, ""); !errors.Is(err, ErrEventInactive) {
		t.Fatalf("past event: err = %v, want ErrEventInactive", err)
	}
}

func TestRegisterRejectsUnknownEventAndSubscriber(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, seedSubscriber(t, store), uuid.New(), ""); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("unknown event: err = %v, want ErrEventNotFound", err)
	}

	eventID := seedEvent(t, store, 5, true, 0)
	if _, err := svc.Register(ctx, uuid.New(), eventID, ""); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("unknown subscriber: err = %v, want ErrSubscriberNotFound", err)
	}
}

func TestRegisterFullWithoutWaitlist(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, false, 0)

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); !errors.Is(err, ErrEventFull) {
		t.Fatalf("err = %v, want ErrEventFull", err)
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != 1 {
		t.Fatalf("rejected registration leaked a seat: attendees = %d", ev.CurrentAttendees)
	}
}

func TestRegisterBoundedWaitlistFillsThenRejects(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 2)

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
		t.Fatalf("fill seat: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
			t.Fatalf("fill waitlist %d: %v", i, err)
		}
	}

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); !errors.Is(err, ErrWaitlistFull) {
		t.Fatalf("err = %v, want ErrWaitlistFull", err)
	}
}

func TestUnregisterWaitlistedClosesRankGap(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
		t.Fatalf("fill seat: %v", err)
	}

	waitlisted := make([]uuid.UUID, 3)
	for i := range waitlisted {
		waitlisted[i] = seedSubscriber(t, store)
		if _, err := svc.Register(ctx, waitlisted[i], eventID, ""); err != nil {
			t.Fatalf("waitlist %d: %v", i, err)
		}
	}

	// Remove the middle entry (rank 2); rank 3 must slide down to 2.
	promoted, err := svc.Unregister(ctx, waitlisted[1], eventID)
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if promoted != nil {
		t.Fatal("cancelling a waitlisted entry must not promote anyone")
	}

	status := domain.RegistrationWaitlisted
	regs, err := svc.ListByEvent(ctx, eventID, &status)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("waitlist size = %d, want 2", len(regs))
	}
	if *regs[0].WaitlistRank != 1 || regs[0].SubscriberID != waitlisted[0] {
		t.Fatalf("head = %v rank %d, want %v rank 1", regs[0].SubscriberID, *regs[0].WaitlistRank, waitlisted[0])
	}
	if *regs[1].WaitlistRank != 2 || regs[1].SubscriberID != waitlisted[2] {
		t.Fatalf("tail = %v rank %d, want %v rank 2", regs[1].SubscriberID, *regs[1].WaitlistRank, waitlisted[2])
	}
}

func TestUnregisterConfirmedPromotesHead(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)
	confirmed := seedSubscriber(t, store)

	if _, err := svc.Register(ctx, confirmed, eventID, ""); err != nil {
		t.Fatalf("fill seat: %v", err)
	}

	head := seedSubscriber(t, store)
	headReg, err := svc.Register(ctx, head, eventID, "")
	if err != nil {
		t.Fatalf("waitlist head: %v", err)
	}
	tail := seedSubscriber(t, store)
	if _, err := svc.Register(ctx, tail, eventID, ""); err != nil {
		t.Fatalf("waitlist tail: %v", err)
	}

	promoted, err := svc.Unregister(ctx, confirmed, eventID)
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if promoted == nil {
		t.Fatal("expected the waitlist head to be promoted")
	}
	if promoted.SubscriberID != head {
		t.Fatalf("promoted %v, want head %v", promoted.SubscriberID, head)
	}
	if promoted.Status != domain.RegistrationConfirmed || promoted.WaitlistRank != nil {
		t.Fatalf("promoted registration not confirmed: status=%s rank=%v", promoted.Status, promoted.WaitlistRank)
	}
	if !promoted.RegisteredAt.Equal(headReg.RegisteredAt) {
		t.Fatalf("promotion changed RegisteredAt: %v != %v", promoted.RegisteredAt, headReg.RegisteredAt)
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != 1 {
		t.Fatalf("attendees = %d, want 1 after swap", ev.CurrentAttendees)
	}

	// The former tail moved up to rank 1.
	status := domain.RegistrationWaitlisted
	regs, err := svc.ListByEvent(ctx, eventID, &status)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 1 || regs[0].SubscriberID != tail || *regs[0].WaitlistRank != 1 {
		t.Fatalf("waitlist after promotion = %+v, want tail at rank 1", regs)
	}
}

func TestUnregisterConfirmedEmptyWaitlistFreesSeat(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)
	subID := seedSubscriber(t, store)

	if _, err := svc.Register(ctx, subID, eventID, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	promoted, err := svc.Unregister(ctx, subID, eventID)
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if promoted != nil {
		t.Fatal("no one to promote from an empty waitlist")
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != 0 {
		t.Fatalf("attendees = %d, want 0", ev.CurrentAttendees)
	}

	// The seat is usable again.
	reg, err := svc.Register(ctx, seedSubscriber(t, store), eventID, "")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if reg.Status != domain.RegistrationConfirmed {
		t.Fatalf("status = %s, want confirmed", reg.Status)
	}
}

func TestUnregisterUnknownRegistration(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)
	subID := seedSubscriber(t, store)

	if _, err := svc.Unregister(ctx, subID, eventID); !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("err = %v, want ErrRegistrationNotFound", err)
	}
}

func TestConcurrentRegistrationsNeverOverbook(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	const capacity = 3
	const callers = 20

	eventID := seedEvent(t, store, capacity, true, 0)

	subs := make([]uuid.UUID, callers)
	for i := range subs {
		subs[i] = seedSubscriber(t, store)
	}

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, subs[i], eventID, "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	ev, err := store.Event(ctx, eventID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.CurrentAttendees != capacity {
		t.Fatalf("attendees = %d, want %d", ev.CurrentAttendees, capacity)
	}

	regs, err := svc.ListByEvent(ctx, eventID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	confirmed, waitlisted := 0, 0
	for _, r := range regs {
		switch r.Status {
		case domain.RegistrationConfirmed:
			confirmed++
		case domain.RegistrationWaitlisted:
			waitlisted++
		}
	}
	if confirmed != capacity || waitlisted != callers-capacity {
		t.Fatalf("confirmed=%d waitlisted=%d, want %d/%d", confirmed, waitlisted, capacity, callers-capacity)
	}
}

func TestListByEventOrderingAndFilter(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 2, true, 0)

	for i := 0; i < 5; i++ {
		if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	regs, err := svc.ListByEvent(ctx, eventID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 5 {
		t.Fatalf("len = %d, want 5", len(regs))
	}
	for i, r := range regs[:2] {
		if r.Status != domain.RegistrationConfirmed {
			t.Fatalf("entry %d: status = %s, want confirmed first", i, r.Status)
		}
	}
	for i, r := range regs[2:] {
		if r.WaitlistRank == nil || *r.WaitlistRank != i+1 {
			t.Fatalf("waitlist entry %d: rank = %v, want %d", i, r.WaitlistRank, i+1)
		}
	}

	status := domain.RegistrationConfirmed
	confirmed, err := svc.ListByEvent(ctx, eventID, &status)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(confirmed) != 2 {
		t.Fatalf("confirmed len = %d, want 2", len(confirmed))
	}

	if _, err := svc.ListByEvent(ctx, uuid.New(), nil); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("unknown event: err = %v, want ErrEventNotFound", err)
	}
}

func TestListBySubscriber(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	subID := seedSubscriber(t, store)
	first := seedEvent(t, store, 5, true, 0)
	second := seedEvent(t, store, 1, true, 0)

	if _, err := svc.Register(ctx, subID, first, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, seedSubscriber(t, store), second, ""); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := svc.Register(ctx, subID, second, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	regs, err := svc.ListBySubscriber(ctx, subID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("len = %d, want 2", len(regs))
	}
	seen := map[uuid.UUID]bool{}
	for _, r := range regs {
		seen[r.EventID] = true
	}
	if !seen[first] || !seen[second] {
		t.Fatalf("missing events in %+v", regs)
	}

	status := domain.RegistrationWaitlisted
	waitlisted, err := svc.ListBySubscriber(ctx, subID, &status)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(waitlisted) != 1 || waitlisted[0].EventID != second {
		t.Fatalf("waitlisted = %+v, want single entry on second event", waitlisted)
	}

	if _, err := svc.ListBySubscriber(ctx, uuid.New(), nil); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("unknown subscriber: err = %v, want ErrSubscriberNotFound", err)
	}
}

// flakyStore fails InTx with a retryable conflict a fixed number of times
// before delegating to the wrapped store.
type flakyStore struct {
	repository.AllocationStore
	mu        sync.Mutex
	conflicts int
}

func (f *flakyStore) InTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.AllocationTx, after func(repository.AfterCommit)) error,
) error {
	f.mu.Lock()
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return repository.ErrConflict
	}
	f.mu.Unlock()
	return f.AllocationStore.InTx(ctx, fn)
}

func TestRegisterRetriesTransientConflicts(t *testing.T) {
	store := memory.NewStore()
	flaky := &flakyStore{AllocationStore: store, conflicts: 2}
	svc := newTestService(t, flaky)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)

	reg, err := svc.Register(ctx, seedSubscriber(t, store), eventID, "")
	if err != nil {
		t.Fatalf("register after transient conflicts: %v", err)
	}
	if reg.Status != domain.RegistrationConfirmed {
		t.Fatalf("status = %s, want confirmed", reg.Status)
	}
}

func TestRegisterGivesUpAfterRetryBudget(t *testing.T) {
	store := memory.NewStore()
	flaky := &flakyStore{AllocationStore: store, conflicts: 100}
	svc := newTestService(t, flaky)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)

	if _, err := svc.Register(ctx, seedSubscriber(t, store), eventID, ""); !errors.Is(err, ErrTooMuchContention) {
		t.Fatalf("err = %v, want ErrTooMuchContention", err)
	}
}

func TestUnregisterRetriesTransientConflicts(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	eventID := seedEvent(t, store, 1, true, 0)
	subID := seedSubscriber(t, store)
	if _, err := svc.Register(ctx, subID, eventID, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	flaky := &flakyStore{AllocationStore: store, conflicts: 1}
	retrySvc := newTestService(t, flaky)

	if _, err := retrySvc.Unregister(ctx, subID, eventID); err != nil {
		t.Fatalf("unregister after transient conflict: %v", err)
	}
}
