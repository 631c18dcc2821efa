package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"rentals/internal/bookings/validator"
	"rentals/internal/events"
	reservationserrors "rentals/internal/reservations/errors"
	reservations "rentals/internal/reservations/service"
	rangevalidator "rentals/internal/reservations/validator"
	"rentals/internal/storage/memory"
	usersservice "rentals/internal/users/service"
	"rentals/pkg/clock"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/logger"
	"rentals/pkg/model"
	"rentals/pkg/validation"
)

var base = time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) *time.Time {
	t := base.AddDate(0, 0, n)
	return &t
}

// slowBookings widens the window between the occupancy read and the write.
type slowBookings struct {
	*memory.BookingRepository
	delay time.Duration
}

func (r slowBookings) ExistsActiveOverlapping(ctx context.Context, propertyID string, dr model.DateRange, excludeID string) (bool, error) {
	time.Sleep(r.delay)
	return r.BookingRepository.ExistsActiveOverlapping(ctx, propertyID, dr, excludeID)
}

type fixture struct {
	store    *memory.Store
	engine   reservations.ReservationEngine
	service  BookingService
	recorder *events.Recorder
	guest    *model.User
	owner    *model.User
	prop     *model.Property
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()

	store := memory.NewStore()
	c := clock.NewMock(base.AddDate(0, 0, -1))
	bookings := slowBookings{BookingRepository: store.Bookings(), delay: delay}

	locker := reservations.NewPropertyLocker(store.PropertyLocks(), c, reservations.LockConfig{
		LeaseTTL:      time.Minute,
		WaitTimeout:   5 * time.Second,
		RetryInterval: time.Millisecond,
	}, log)
	engine := reservations.NewReservationEngine(bookings, store.Blocks(), store.Properties(), locker, store.TransactionManager(), log)

	users := usersservice.NewUserService(store.Users(), validation.New(), log)
	bookingValidator := validator.NewBookingValidator(validation.New(), rangevalidator.NewDateRangeValidator(c), 24, log)
	recorder := events.NewRecorder()

	guest := &model.User{Name: "Ana Guest", Email: "ana@example.com", Role: model.RoleGuest}
	owner := &model.User{Name: "Olga Owner", Email: "olga@example.com", Role: model.RoleOwner}
	for _, u := range []*model.User{guest, owner} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	prop := &model.Property{OwnerID: owner.ID, Name: "Loft", Location: "Lisbon"}
	if err := store.Properties().Create(ctx, prop); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		store:    store,
		engine:   engine,
		service:  NewBookingService(bookings, engine, users, bookingValidator, recorder, c, log),
		recorder: recorder,
		guest:    guest,
		owner:    owner,
		prop:     prop,
	}
}

func (f *fixture) request(from, to int) *model.BookingRequest {
	return &model.BookingRequest{
		GuestID:      f.guest.ID,
		PropertyID:   f.prop.ID,
		CheckInDate:  day(from),
		CheckOutDate: day(to),
	}
}

func (f *fixture) block(t *testing.T, from, to int) *model.Block {
	t.Helper()
	b := &model.Block{PropertyID: f.prop.ID, StartDate: *day(from), EndDate: *day(to)}
	if err := f.store.Blocks().Create(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	return b
}

func (f *fixture) mustCreate(t *testing.T, from, to int) *model.Booking {
	t.Helper()
	b, err := f.service.Create(context.Background(), f.request(from, to))
	if err != nil {
		t.Fatalf("Create(%d, %d) error = %v", from, to, err)
	}
	return b
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("error = %v, want %s", err, code)
	}
}

func TestCreate_OccupiesRange(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 5)
	if b.Status != model.BookingActive || b.ID == "" {
		t.Fatalf("created booking = %+v", b)
	}

	for _, r := range [][2]int{{2, 5}, {1, 3}, {4, 6}, {3, 4}, {0, 9}} {
		busy, err := f.engine.ExistsBookingOnDate(ctx, f.prop.ID, *day(r[0]), *day(r[1]))
		if err != nil {
			t.Fatal(err)
		}
		if !busy {
			t.Errorf("range %v not reported as occupied", r)
		}
	}
}

func TestCreate_TouchingRangesDoNotConflict(t *testing.T) {
	f := newFixture(t, 0)

	f.mustCreate(t, 2, 4)
	f.mustCreate(t, 4, 6)
	f.mustCreate(t, 1, 2)
}

func TestCreate_OverlapIsBusy(t *testing.T) {
	f := newFixture(t, 0)
	f.mustCreate(t, 2, 5)

	_, err := f.service.Create(context.Background(), f.request(4, 7))
	assertCode(t, err, apperrors.CodePropertyBusy)
	if msg := apperrors.AsAppError(err).Message; msg != msgAlreadyBooked {
		t.Errorf("message = %q", msg)
	}
}

func TestCreate_TouchingBlockScenario(t *testing.T) {
	f := newFixture(t, 0)
	f.block(t, 2, 3)

	f.mustCreate(t, 1, 2)

	_, err := f.service.Create(context.Background(), f.request(2, 4))
	assertCode(t, err, apperrors.CodePropertyBlocked)
}

func TestCreate_BusyReportedBeforeBlocked(t *testing.T) {
	f := newFixture(t, 0)
	f.mustCreate(t, 2, 4)
	f.block(t, 4, 6)

	_, err := f.service.Create(context.Background(), f.request(3, 5))
	assertCode(t, err, apperrors.CodePropertyBusy)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		mut  func(*model.BookingRequest)
		code string
		rule error
	}{
		{"missing dates", func(r *model.BookingRequest) { r.CheckInDate = nil }, apperrors.CodeInvalidDateRange, reservationserrors.ErrMissingDates},
		{"start in past", func(r *model.BookingRequest) { r.CheckInDate = day(-3) }, apperrors.CodeInvalidDateRange, reservationserrors.ErrStartInPast},
		{"reversed", func(r *model.BookingRequest) { r.CheckInDate, r.CheckOutDate = day(5), day(2) }, apperrors.CodeInvalidDateRange, reservationserrors.ErrStartAfterEnd},
		{"too short", func(r *model.BookingRequest) { end := day(2).Add(time.Hour); r.CheckOutDate = &end }, apperrors.CodeInvalidDateRange, reservationserrors.ErrDurationTooShort},
		{"unknown guest", func(r *model.BookingRequest) { r.GuestID = "507f1f77bcf86cd7994390aa" }, apperrors.CodeNotFound, nil},
		{"owner as guest", func(r *model.BookingRequest) { r.GuestID = f.owner.ID }, apperrors.CodeNotFound, nil},
		{"unknown property", func(r *model.BookingRequest) { r.PropertyID = "507f1f77bcf86cd7994390bb" }, apperrors.CodeNotFound, nil},
		{"malformed property", func(r *model.BookingRequest) { r.PropertyID = "nope" }, apperrors.CodeValidation, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(2, 4)
			tt.mut(req)
			_, err := f.service.Create(ctx, req)
			assertCode(t, err, tt.code)
			if tt.rule != nil && !errors.Is(err, tt.rule) {
				t.Errorf("error = %v, want rule %v", err, tt.rule)
			}
		})
	}

	if got := f.recorder.Events(); len(got) != 0 {
		t.Errorf("rejected creates published %d events", len(got))
	}
}

func TestCancel_FreesRange(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 2)

	cancelled, err := f.service.Cancel(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != model.BookingCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}

	f.mustCreate(t, 1, 2)
}

func TestCancel_AlreadyCancelledAlwaysFails(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 3)
	if _, err := f.service.Cancel(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_, err := f.service.Cancel(ctx, b.ID)
		assertCode(t, err, apperrors.CodeBusinessRule)
		if msg := apperrors.AsAppError(err).Message; msg != "Booking is already cancelled" {
			t.Errorf("message = %q", msg)
		}
	}
}

func TestRebook_AlreadyActiveAlwaysFails(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 3)
	for i := 0; i < 3; i++ {
		_, err := f.service.Rebook(ctx, b.ID)
		assertCode(t, err, apperrors.CodeBusinessRule)
		if msg := apperrors.AsAppError(err).Message; msg != "Booking is already active" {
			t.Errorf("message = %q", msg)
		}
	}
}

func TestRebook(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 3)
	if _, err := f.service.Cancel(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	rebooked, err := f.service.Rebook(ctx, b.ID)
	if err != nil {
		t.Fatalf("Rebook() error = %v", err)
	}
	if rebooked.Status != model.BookingActive {
		t.Errorf("status = %s", rebooked.Status)
	}
}

func TestRebook_RangeTakenMeanwhile(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 3)
	if _, err := f.service.Cancel(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	f.mustCreate(t, 2, 4)

	_, err := f.service.Rebook(ctx, b.ID)
	assertCode(t, err, apperrors.CodePropertyBusy)
	if msg := apperrors.AsAppError(err).Message; !strings.HasPrefix(msg, "Cannot rebook") {
		t.Errorf("message = %q", msg)
	}

	stored, err := f.service.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.BookingCancelled {
		t.Errorf("failed rebook changed status to %s", stored.Status)
	}
}

func TestRebook_BlockedMeanwhile(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 1, 3)
	if _, err := f.service.Cancel(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	f.block(t, 2, 5)

	_, err := f.service.Rebook(ctx, b.ID)
	assertCode(t, err, apperrors.CodePropertyBlocked)
}

func TestUpdate_OverlappingOwnRange(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 6)

	updated, err := f.service.Update(ctx, b.ID, f.request(3, 5))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.CheckInDate.Equal(*day(3)) || !updated.CheckOutDate.Equal(*day(5)) {
		t.Errorf("dates = %v - %v", updated.CheckInDate, updated.CheckOutDate)
	}
	if updated.Status != model.BookingActive {
		t.Errorf("status = %s", updated.Status)
	}
}

func TestUpdate_ConflictsWithOthers(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 4)
	f.mustCreate(t, 6, 8)
	f.block(t, 10, 12)

	_, err := f.service.Update(ctx, b.ID, f.request(3, 7))
	assertCode(t, err, apperrors.CodePropertyBusy)

	_, err = f.service.Update(ctx, b.ID, f.request(9, 11))
	assertCode(t, err, apperrors.CodePropertyBlocked)

	stored, err := f.service.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.CheckInDate.Equal(*day(2)) {
		t.Errorf("rejected update was persisted: %v", stored.CheckInDate)
	}
}

func TestUpdate_MovesToAnotherProperty(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	other := &model.Property{OwnerID: f.owner.ID, Name: "Cabin", Location: "Porto"}
	if err := f.store.Properties().Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	b := f.mustCreate(t, 2, 4)
	req := f.request(2, 4)
	req.PropertyID = other.ID

	updated, err := f.service.Update(ctx, b.ID, req)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.PropertyID != other.ID {
		t.Errorf("property = %s", updated.PropertyID)
	}

	f.mustCreate(t, 2, 4)
}

func TestUpdate_UnknownBooking(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.service.Update(context.Background(), "507f1f77bcf86cd7994390cc", f.request(2, 4))
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdate_ResolvesGuestAndPropertyBeforeRange(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 4)

	unknownGuest := f.request(-3, -1)
	unknownGuest.GuestID = "507f1f77bcf86cd7994390dd"
	_, err := f.service.Update(ctx, b.ID, unknownGuest)
	assertCode(t, err, apperrors.CodeNotFound)

	unknownProperty := f.request(-3, -1)
	unknownProperty.PropertyID = "507f1f77bcf86cd7994390ee"
	_, err = f.service.Update(ctx, b.ID, unknownProperty)
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.service.Update(ctx, b.ID, f.request(-3, -1))
	assertCode(t, err, apperrors.CodeInvalidDateRange)

	missingGuest := f.request(2, 4)
	missingGuest.GuestID = ""
	_, err = f.service.Update(ctx, b.ID, missingGuest)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 4)
	if err := f.service.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	_, err := f.service.GetByID(ctx, b.ID)
	assertCode(t, err, apperrors.CodeNotFound)

	err = f.service.Delete(ctx, b.ID)
	assertCode(t, err, apperrors.CodeNotFound)

	f.mustCreate(t, 2, 4)
}

func TestGetByID_InvalidID(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.service.GetByID(context.Background(), "not-an-id")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestGetAll(t *testing.T) {
	f := newFixture(t, 0)

	f.mustCreate(t, 5, 7)
	f.mustCreate(t, 1, 3)
	f.mustCreate(t, 9, 11)

	bookings, total, err := f.service.GetAll(context.Background(), 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(bookings) != 2 {
		t.Fatalf("total = %d, page = %d", total, len(bookings))
	}
	if !bookings[0].CheckInDate.Equal(*day(1)) {
		t.Errorf("first booking starts %v, want earliest check in", bookings[0].CheckInDate)
	}
}

func TestLifecyclePublishesEvents(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 4)
	if _, err := f.service.Update(ctx, b.ID, f.request(2, 5)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Cancel(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.Rebook(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.service.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	want := []model.OccupancyEventType{
		model.EventBookingCreated,
		model.EventBookingUpdated,
		model.EventBookingCancelled,
		model.EventBookingRebooked,
		model.EventBookingDeleted,
	}
	got := f.recorder.Types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	for _, e := range f.recorder.Events() {
		if e.PropertyID != f.prop.ID || e.RecordID != b.ID {
			t.Errorf("event %s carries %s/%s", e.Type, e.PropertyID, e.RecordID)
		}
	}
}

func TestCreate_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		prop := &model.Property{OwnerID: f.owner.ID, Name: "Loft", Location: "Lisbon"}
		if err := f.store.Properties().Create(ctx, prop); err != nil {
			t.Fatal(err)
		}

		reqs := []*model.BookingRequest{
			{GuestID: f.guest.ID, PropertyID: prop.ID, CheckInDate: day(2), CheckOutDate: day(5)},
			{GuestID: f.guest.ID, PropertyID: prop.ID, CheckInDate: day(3), CheckOutDate: day(6)},
		}

		errs := make([]error, len(reqs))
		var wg sync.WaitGroup
		for j, req := range reqs {
			j, req := j, req
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[j] = f.service.Create(ctx, req)
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, apperrors.CodePropertyBusy), apperrors.HasCode(err, apperrors.CodePropertyBlocked):
			default:
				t.Fatalf("iteration %d: unexpected error %v", i, err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("iteration %d: %d creates succeeded, want exactly 1", i, succeeded)
		}
	}

	all, _, err := f.service.GetAll(ctx, 1000, 0)
	if err != nil {
		t.Fatal(err)
	}
	byProperty := make(map[string][]*model.Booking)
	for _, b := range all {
		byProperty[b.PropertyID] = append(byProperty[b.PropertyID], b)
	}
	for pid, bookings := range byProperty {
		for x := 0; x < len(bookings); x++ {
			for y := x + 1; y < len(bookings); y++ {
				if bookings[x].Range().Overlaps(bookings[y].Range()) {
					t.Errorf("double booking on property %s", pid)
				}
			}
		}
	}
}
