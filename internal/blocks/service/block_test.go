package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentals/internal/blocks/validator"
	"rentals/internal/events"
	reservationserrors "rentals/internal/reservations/errors"
	reservations "rentals/internal/reservations/service"
	rangevalidator "rentals/internal/reservations/validator"
	"rentals/internal/storage/memory"
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

type fixture struct {
	store    *memory.Store
	service  BlockService
	recorder *events.Recorder
	prop     *model.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()

	store := memory.NewStore()
	c := clock.NewMock(base.AddDate(0, 0, -1))
	locker := reservations.NewPropertyLocker(store.PropertyLocks(), c, reservations.LockConfig{
		LeaseTTL:      time.Minute,
		WaitTimeout:   time.Second,
		RetryInterval: time.Millisecond,
	}, log)
	engine := reservations.NewReservationEngine(store.Bookings(), store.Blocks(), store.Properties(), locker, store.TransactionManager(), log)
	blockValidator := validator.NewBlockValidator(validation.New(), rangevalidator.NewDateRangeValidator(c), 24, log)
	recorder := events.NewRecorder()

	prop := &model.Property{OwnerID: "507f1f77bcf86cd799439011", Name: "Loft", Location: "Lisbon"}
	if err := store.Properties().Create(context.Background(), prop); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		store:    store,
		service:  NewBlockService(store.Blocks(), engine, blockValidator, recorder, c, log),
		recorder: recorder,
		prop:     prop,
	}
}

func (f *fixture) request(from, to int) *model.BlockRequest {
	return &model.BlockRequest{PropertyID: f.prop.ID, StartDate: day(from), EndDate: day(to), Reason: "  Owner   stay "}
}

func (f *fixture) booking(t *testing.T, from, to int, status model.BookingStatus) {
	t.Helper()
	b := &model.Booking{
		PropertyID:   f.prop.ID,
		GuestID:      "507f1f77bcf86cd799439012",
		CheckInDate:  *day(from),
		CheckOutDate: *day(to),
		Status:       status,
	}
	if err := f.store.Bookings().Create(context.Background(), b); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) mustCreate(t *testing.T, from, to int) *model.Block {
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

func TestCreate(t *testing.T) {
	f := newFixture(t)

	b := f.mustCreate(t, 2, 4)
	if b.ID == "" || b.Reason != "Owner stay" {
		t.Errorf("created block = %+v", b)
	}

	f.mustCreate(t, 4, 6)
}

func TestCreate_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, 2, 4)
	f.booking(t, 6, 8, model.BookingActive)
	f.booking(t, 10, 12, model.BookingCancelled)

	_, err := f.service.Create(ctx, f.request(3, 5))
	assertCode(t, err, apperrors.CodePropertyBlocked)
	if msg := apperrors.AsAppError(err).Message; msg != msgAlreadyBlocked {
		t.Errorf("message = %q", msg)
	}

	_, err = f.service.Create(ctx, f.request(7, 9))
	assertCode(t, err, apperrors.CodePropertyBusy)
	if msg := apperrors.AsAppError(err).Message; msg != msgAlreadyBooked {
		t.Errorf("message = %q", msg)
	}

	// Both conflicts: the block wins.
	_, err = f.service.Create(ctx, f.request(3, 7))
	assertCode(t, err, apperrors.CodePropertyBlocked)

	f.mustCreate(t, 10, 12)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request(2, 4)
	req.EndDate = nil
	_, err := f.service.Create(ctx, req)
	assertCode(t, err, apperrors.CodeInvalidDateRange)
	if !errors.Is(err, reservationserrors.ErrMissingDates) {
		t.Errorf("error = %v, want missing dates", err)
	}

	req = f.request(2, 4)
	req.PropertyID = "507f1f77bcf86cd7994390bb"
	_, err = f.service.Create(ctx, req)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 5)
	other := f.mustCreate(t, 8, 10)
	f.booking(t, 12, 14, model.BookingActive)

	updated, err := f.service.Update(ctx, b.ID, f.request(3, 6))
	if err != nil {
		t.Fatalf("Update() overlapping own range error = %v", err)
	}
	if !updated.StartDate.Equal(*day(3)) {
		t.Errorf("start = %v", updated.StartDate)
	}

	_, err = f.service.Update(ctx, b.ID, f.request(7, 9))
	assertCode(t, err, apperrors.CodePropertyBlocked)

	_, err = f.service.Update(ctx, b.ID, f.request(11, 13))
	assertCode(t, err, apperrors.CodePropertyBusy)

	_, err = f.service.Update(ctx, b.ID, f.request(-2, 1))
	assertCode(t, err, apperrors.CodeInvalidDateRange)

	_, err = f.service.Update(ctx, "507f1f77bcf86cd7994390cc", f.request(20, 22))
	assertCode(t, err, apperrors.CodeNotFound)

	if _, err := f.service.GetByID(ctx, other.ID); err != nil {
		t.Fatal(err)
	}
}

func TestDelete_FreesRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.mustCreate(t, 2, 4)
	if err := f.service.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	_, err := f.service.GetByID(ctx, b.ID)
	assertCode(t, err, apperrors.CodeNotFound)

	f.mustCreate(t, 2, 4)

	got := f.recorder.Types()
	want := []model.OccupancyEventType{model.EventBlockCreated, model.EventBlockDeleted, model.EventBlockCreated}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGetAll(t *testing.T) {
	f := newFixture(t)

	f.mustCreate(t, 6, 8)
	f.mustCreate(t, 2, 4)

	blocks, total, err := f.service.GetAll(context.Background(), 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(blocks) != 1 {
		t.Fatalf("total = %d, page = %d", total, len(blocks))
	}
	if !blocks[0].StartDate.Equal(*day(6)) {
		t.Errorf("second block starts %v", blocks[0].StartDate)
	}
}
