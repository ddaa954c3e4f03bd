package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"turfbook/internal/booking"
	"turfbook/internal/booking/db"
	"turfbook/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	store := &db.DB{Bun: bunDB}
	if err := store.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return store, bunDB
}

func testBooking(slots ...string) *models.Booking {
	return &models.Booking{
		BookingID:     uuid.NewString(),
		Reference:     "TB-TEST01",
		GroundID:      models.GroundMatch,
		Sport:         models.SportCricket,
		Date:          "2030-06-10",
		Slots:         slots,
		Category:      models.GroundMatch,
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		FinalPrice:    1680,
		Status:        models.BookingActive,
		CreatedAt:     time.Now(),
	}
}

func TestCreateBookingWithClaims(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("06:00-07:00", "07:00-08:00")
	err := store.CreateBookingWithClaims(context.Background(), b)
	assert.NoError(t, err)

	got, err := store.GetBookingByID(context.Background(), b.BookingID)
	assert.NoError(t, err)
	assert.Equal(t, b.BookingID, got.BookingID)
	assert.Equal(t, []string{"06:00-07:00", "07:00-08:00"}, got.Slots)

	claims, err := store.ActiveClaims(context.Background(), models.GroundMatch, "2030-06-10")
	assert.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	first := testBooking("06:00-07:00", "07:00-08:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), first))

	// Different sport, same ground and slot: must still collide.
	second := testBooking("07:00-08:00")
	second.Reference = "TB-TEST02"
	second.Sport = models.SportFootball

	err := store.CreateBookingWithClaims(context.Background(), second)
	assert.True(t, booking.IsSlotConflict(err), "expected slot conflict, got %v", err)

	// The transaction rolled everything back.
	_, err = store.GetBookingByID(context.Background(), second.BookingID)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()
	// A second connection to :memory: is a separate database; pin the pool
	// so both writers hit the same one.
	bunDB.SetMaxOpenConns(1)

	first := testBooking("06:00-07:00")
	second := testBooking("06:00-07:00")
	second.Reference = "TB-TEST06"
	second.Sport = models.SportFootball

	errs := make(chan error, 2)
	start := make(chan struct{})
	for _, b := range []*models.Booking{first, second} {
		go func(b *models.Booking) {
			<-start
			errs <- store.CreateBookingWithClaims(context.Background(), b)
		}(b)
	}
	close(start)

	var wins, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			wins++
		case booking.IsSlotConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	claims, err := store.ActiveClaims(context.Background(), models.GroundMatch, "2030-06-10")
	assert.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestUniqueIndexBackstop(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("06:00-07:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b))

	// Force a claim row past the in-transaction check to prove the index
	// alone stops it.
	dupe := models.SlotClaim{
		ClaimID:   uuid.NewString(),
		BookingID: uuid.NewString(),
		GroundID:  models.GroundMatch,
		Sport:     models.SportBadminton,
		Date:      "2030-06-10",
		Slot:      "06:00-07:00",
		CreatedAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&dupe).Exec(context.Background())
	assert.Error(t, err)
}

func TestReleaseClaimsFreesSlot(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	first := testBooking("10:00-11:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), first))
	assert.NoError(t, store.ReleaseClaims(context.Background(), first.BookingID))

	claims, err := store.ActiveClaims(context.Background(), models.GroundMatch, "2030-06-10")
	assert.NoError(t, err)
	assert.Empty(t, claims)

	// A released slot can be claimed again despite the unique index.
	second := testBooking("10:00-11:00")
	second.Reference = "TB-TEST03"
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), second))
}

func TestUpdateBooking(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("06:00-07:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b))

	b.Status = models.BookingConfirmed
	b.PaymentID = "pay_test123"
	b.ConfirmedAt = time.Now()
	assert.NoError(t, store.UpdateBooking(context.Background(), b))

	got, err := store.GetBookingByID(context.Background(), b.BookingID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, got.Status)
	assert.Equal(t, "pay_test123", got.PaymentID)
}

func TestGetBookingByReference(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("06:00-07:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b))

	got, err := store.GetBookingByReference(context.Background(), "TB-TEST01")
	assert.NoError(t, err)
	assert.Equal(t, b.BookingID, got.BookingID)

	_, err = store.GetBookingByReference(context.Background(), "TB-NOPE")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestListBookingsByEmail(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b1 := testBooking("06:00-07:00")
	b1.CreatedAt = time.Now().Add(-time.Hour)
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b1))

	b2 := testBooking("08:00-09:00")
	b2.Reference = "TB-TEST04"
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b2))

	other := testBooking("12:00-13:00")
	other.Reference = "TB-TEST05"
	other.CustomerEmail = "someone@example.com"
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), other))

	bookings, err := store.ListBookingsByEmail(context.Background(), "asha@example.com")
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
	// Newest first.
	assert.Equal(t, b2.BookingID, bookings[0].BookingID)
	assert.Equal(t, []string{"08:00-09:00"}, bookings[0].Slots)
}

func TestGetActiveBookingBySlot(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	b := testBooking("09:00-10:00")
	assert.NoError(t, store.CreateBookingWithClaims(context.Background(), b))

	got, err := store.GetActiveBookingBySlot(context.Background(), models.GroundMatch, "2030-06-10", "09:00-10:00")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, b.BookingID, got.BookingID)

	// Confirmed bookings are out of scope for the expiry path.
	b.Status = models.BookingConfirmed
	assert.NoError(t, store.UpdateBooking(context.Background(), b))

	got, err = store.GetActiveBookingBySlot(context.Background(), models.GroundMatch, "2030-06-10", "09:00-10:00")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestFreezes(t *testing.T) {
	store, bunDB := setupTestDB(t)
	defer bunDB.Close()

	freeze := models.FrozenSlot{
		FreezeID: uuid.NewString(),
		GroundID: models.GroundPractice,
		Sport:    models.SportBadminton,
		Date:     "2030-06-10",
		Slot:     "18:00-19:00",
		FrozenBy: "admin1",
		FrozenAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&freeze).Exec(context.Background())
	assert.NoError(t, err)

	freezes, err := store.Freezes(context.Background(), models.GroundPractice, "2030-06-10")
	assert.NoError(t, err)
	assert.Len(t, freezes, 1)
	assert.Equal(t, "18:00-19:00", freezes[0].Slot)

	freezes, err = store.Freezes(context.Background(), models.GroundMatch, "2030-06-10")
	assert.NoError(t, err)
	assert.Empty(t, freezes)
}
