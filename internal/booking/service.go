package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turfbook/internal/logger"
	"turfbook/internal/models"
	"turfbook/internal/pricing"
	"turfbook/internal/utils"
)

type DBLayer interface {
	CreateBookingWithClaims(ctx context.Context, b *models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	ListBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error)
	ListBookingsForDay(ctx context.Context, groundID, date string) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	ReleaseClaims(ctx context.Context, bookingID string) error
	ActiveClaims(ctx context.Context, groundID, date string) ([]models.SlotClaim, error)
	Freezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error)
	GetActiveBookingBySlot(ctx context.Context, groundID, date, slot string) (*models.Booking, error)
}

type RedisLock interface {
	LockSlots(groundID, date string, slots []string, bookingID string) (bool, error)
	UnlockSlots(groundID, date string, slots []string, bookingID string) error
}

type KafkaPublisher interface {
	PublishBookingCreated(event models.BookingEvent) error
	PublishBookingConfirmed(event models.BookingEvent) error
	PublishBookingCancelled(event models.BookingEvent) error
}

type CouponService interface {
	Validate(ctx context.Context, code string, bctx models.CouponContext, baseAmount float64) (*models.CouponResult, error)
	Redeem(ctx context.Context, code string) error
}

// SettingsStore answers whether online payments are currently switched on.
type SettingsStore interface {
	OnlinePaymentsEnabled(ctx context.Context) (bool, error)
}

type Service struct {
	DB       DBLayer
	Redis    RedisLock
	Kafka    KafkaPublisher
	Coupons  CouponService
	Settings SettingsStore
	Pricing  *pricing.Engine
	Logger   *logger.Logger
}

func NewService(db DBLayer, redis RedisLock, kafka KafkaPublisher, coupons CouponService, settings SettingsStore, engine *pricing.Engine, log *logger.Logger) *Service {
	return &Service{
		DB:       db,
		Redis:    redis,
		Kafka:    kafka,
		Coupons:  coupons,
		Settings: settings,
		Pricing:  engine,
		Logger:   log,
	}
}

// QuoteResponse is a quote with an optional coupon dry-run folded in.
type QuoteResponse struct {
	Quote      *pricing.Quote       `json:"quote"`
	Coupon     *models.CouponResult `json:"coupon,omitempty"`
	FinalPrice float64              `json:"final_price"`
	AdvanceDue float64              `json:"advance_due"`
	BalanceDue float64              `json:"balance_due"`
}

// Availability returns the per-slot view for a ground and date, merging
// bookings and freezes across every sport.
func (s *Service) Availability(ctx context.Context, groundID, date string) ([]models.SlotStatus, error) {
	if !models.ValidGround(groundID) {
		return nil, invalidRequest("unknown ground %q", groundID)
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, invalidRequest("malformed date %q, want YYYY-MM-DD", date)
	}

	claims, err := s.DB.ActiveClaims(ctx, groundID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot claims: %w", err)
	}
	freezes, err := s.DB.Freezes(ctx, groundID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load freezes: %w", err)
	}

	return BuildAvailability(date, claims, freezes, time.Now()), nil
}

// Quote prices a prospective booking without writing anything. A coupon
// code, if given, is dry-run against the quote.
func (s *Service) Quote(ctx context.Context, req models.BookingRequest) (*QuoteResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	quote, err := s.Pricing.Quote(req.GroundID, req.Date, len(req.Slots))
	if err != nil {
		return nil, invalidRequest("could not price booking: %v", err)
	}

	resp := &QuoteResponse{
		Quote:      quote,
		FinalPrice: quote.FinalPrice,
		AdvanceDue: quote.Advance,
		BalanceDue: quote.Balance,
	}

	if req.CouponCode != "" {
		result, err := s.Coupons.Validate(ctx, req.CouponCode, couponContext(req), quote.FinalPrice)
		if err != nil {
			return nil, fmt.Errorf("coupon validation failed: %w", err)
		}
		resp.Coupon = result
		if result.Valid {
			resp.FinalPrice = result.FinalPrice
			resp.AdvanceDue, resp.BalanceDue = splitAdvance(req.GroundID, resp.FinalPrice)
		}
	}

	return resp, nil
}

// PlaceBooking runs the full pipeline: validate, price, apply the coupon,
// take Redis holds, then write the booking and its slot claims in one
// transaction. The claims re-check and the unique index make the write safe
// even if two requests for the same slots get this far together.
func (s *Service) PlaceBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	statuses, err := s.Availability(ctx, req.GroundID, req.Date)
	if err != nil {
		return nil, err
	}
	if conflicts := ConflictingSlots(req.Slots, statuses); len(conflicts) > 0 {
		return nil, &SlotConflictError{GroundID: req.GroundID, Date: req.Date, Slots: conflicts}
	}

	quote, err := s.Pricing.Quote(req.GroundID, req.Date, len(req.Slots))
	if err != nil {
		return nil, invalidRequest("could not price booking: %v", err)
	}

	finalPrice := quote.FinalPrice
	var couponDiscount float64
	if req.CouponCode != "" {
		result, err := s.Coupons.Validate(ctx, req.CouponCode, couponContext(req), quote.FinalPrice)
		if err != nil {
			return nil, fmt.Errorf("coupon validation failed: %w", err)
		}
		if !result.Valid {
			return nil, invalidRequest("%s", result.Message)
		}
		couponDiscount = result.Discount
		finalPrice = result.FinalPrice
	}
	advanceDue, balanceDue := splitAdvance(req.GroundID, finalPrice)

	onlineEnabled := true
	if s.Settings != nil {
		onlineEnabled, err = s.Settings.OnlinePaymentsEnabled(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read payment settings: %w", err)
		}
	}

	b := &models.Booking{
		BookingID:      uuid.NewString(),
		Reference:      utils.GenerateBookingReference(),
		GroundID:       req.GroundID,
		Sport:          req.Sport,
		Date:           req.Date,
		Slots:          req.Slots,
		Category:       req.GroundID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		BasePrice:      quote.BasePrice,
		DiscountPct:    quote.DiscountPct,
		DiscountAmount: quote.DiscountAmount,
		CouponCode:     req.CouponCode,
		CouponDiscount: couponDiscount,
		FinalPrice:     finalPrice,
		AdvanceDue:     advanceDue,
		BalanceDue:     balanceDue,
		Status:         models.BookingActive,
		CreatedAt:      time.Now(),
	}

	// With online payments off, or nothing to pay up front, there is no
	// payment window: the booking is confirmed on the spot and settled at
	// the venue.
	payAtVenue := !onlineEnabled || advanceDue == 0
	if payAtVenue {
		b.Status = models.BookingConfirmed
		b.ConfirmedAt = b.CreatedAt
	}

	ok, err := s.Redis.LockSlots(req.GroundID, req.Date, req.Slots, b.BookingID)
	if err != nil {
		return nil, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, ErrSlotsLocked
	}

	if err := s.DB.CreateBookingWithClaims(ctx, b); err != nil {
		_ = s.Redis.UnlockSlots(req.GroundID, req.Date, req.Slots, b.BookingID)
		return nil, err
	}

	if payAtVenue {
		// The durable claim is in place; the hold has done its job.
		_ = s.Redis.UnlockSlots(req.GroundID, req.Date, req.Slots, b.BookingID)
		if req.CouponCode != "" {
			if err := s.Coupons.Redeem(ctx, req.CouponCode); err != nil && s.Logger != nil {
				s.Logger.Error("BOOKING", fmt.Sprintf("Coupon redeem failed for %s: %v", b.BookingID, err))
			}
		}
	}

	if s.Logger != nil {
		s.Logger.LogBooking("create", b.BookingID, fmt.Sprintf("%s %s %s %v status=%s", b.GroundID, b.Sport, b.Date, b.Slots, b.Status))
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCreated(event(models.EventBookingCreated, b)); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish booking created failed: %v", err))
		}
	}

	return b, nil
}

// ConfirmBooking records a successful advance payment. Safe to retry: a
// booking already confirmed with the same payment is a no-op.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID, paymentID, transactionID string) error {
	b, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	s.lazyComplete(ctx, b)

	if b.Status == models.BookingConfirmed && b.PaymentID == paymentID {
		return nil
	}
	if !b.Status.CanTransitionTo(models.BookingConfirmed) {
		return ErrNotConfirmable
	}

	b.Status = models.BookingConfirmed
	b.PaymentID = paymentID
	b.TransactionID = transactionID
	b.ConfirmedAt = time.Now()

	if err := s.DB.UpdateBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to confirm booking %s: %w", bookingID, err)
	}

	if b.CouponCode != "" {
		if err := s.Coupons.Redeem(ctx, b.CouponCode); err != nil && s.Logger != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("Coupon redeem failed for %s: %v", bookingID, err))
		}
	}

	if err := s.Redis.UnlockSlots(b.GroundID, b.Date, b.Slots, b.BookingID); err != nil && s.Logger != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Failed to release holds for %s: %v", bookingID, err))
	}

	if s.Logger != nil {
		s.Logger.LogBooking("confirm", b.BookingID, fmt.Sprintf("payment=%s", paymentID))
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingConfirmed(event(models.EventBookingConfirmed, b)); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish booking confirmed failed: %v", err))
		}
	}

	return nil
}

// CancelBooking releases the booking's slots. Completed bookings cannot be
// cancelled, including ones that completed since they were last read.
func (s *Service) CancelBooking(ctx context.Context, bookingID, reason string) error {
	b, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	s.lazyComplete(ctx, b)

	if !b.Status.CanTransitionTo(models.BookingCancelled) {
		return ErrNotCancellable
	}

	b.Status = models.BookingCancelled
	b.CancelledAt = time.Now()
	b.CancelReason = reason

	if err := s.DB.UpdateBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	if err := s.DB.ReleaseClaims(ctx, bookingID); err != nil {
		return fmt.Errorf("failed to release claims for %s: %w", bookingID, err)
	}

	if err := s.Redis.UnlockSlots(b.GroundID, b.Date, b.Slots, b.BookingID); err != nil && s.Logger != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Failed to release holds for %s: %v", bookingID, err))
	}

	if s.Logger != nil {
		s.Logger.LogBooking("cancel", b.BookingID, reason)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingCancelled(event(models.EventBookingCancelled, b)); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish booking cancelled failed: %v", err))
		}
	}

	return nil
}

// GetBooking fetches a booking, settling its status first if its last slot
// has already ended.
func (s *Service) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.lazyComplete(ctx, b)
	return b, nil
}

// GetBookingByReference is the lookup behind reference-based endpoints.
func (s *Service) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	b, err := s.DB.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	s.lazyComplete(ctx, b)
	return b, nil
}

// ListMyBookings returns a customer's bookings, newest first.
func (s *Service) ListMyBookings(ctx context.Context, email string) ([]models.Booking, error) {
	bookings, err := s.DB.ListBookingsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		s.lazyComplete(ctx, &bookings[i])
	}
	return bookings, nil
}

// ListBookingsForDay returns every booking on a ground for one date. Staff
// only; customers go through ListMyBookings.
func (s *Service) ListBookingsForDay(ctx context.Context, groundID, date string) ([]models.Booking, error) {
	if !models.ValidGround(groundID) {
		return nil, invalidRequest("unknown ground %q", groundID)
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, invalidRequest("malformed date %q, want YYYY-MM-DD", date)
	}
	bookings, err := s.DB.ListBookingsForDay(ctx, groundID, date)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		s.lazyComplete(ctx, &bookings[i])
	}
	return bookings, nil
}

// HandleExpiredHold reacts to a slot hold expiring in Redis: if an unpaid
// booking is still sitting on the slot, its payment window is over and it
// is cancelled, freeing the slot for everyone else.
func (s *Service) HandleExpiredHold(ctx context.Context, groundID, date, slot string) error {
	b, err := s.DB.GetActiveBookingBySlot(ctx, groundID, date, slot)
	if err != nil {
		return fmt.Errorf("failed to look up booking for expired hold: %w", err)
	}
	if b == nil {
		return nil
	}
	if s.Logger != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Payment window elapsed for %s, cancelling", b.BookingID))
	}
	return s.CancelBooking(ctx, b.BookingID, "payment window elapsed")
}

// lazyComplete settles a live booking whose last slot has ended. There is
// no background sweeper; status catches up whenever the booking is read.
func (s *Service) lazyComplete(ctx context.Context, b *models.Booking) {
	if !b.Status.BlocksSlots() || len(b.Slots) == 0 {
		return
	}
	end, err := models.LatestSlotEnd(b.Date, b.Slots)
	if err != nil || time.Now().Before(end) {
		return
	}
	b.Status = models.BookingCompleted
	if err := s.DB.UpdateBooking(ctx, b); err != nil && s.Logger != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("Failed to persist completion for %s: %v", b.BookingID, err))
	}
}

func (s *Service) validateRequest(req models.BookingRequest) error {
	if !models.ValidGround(req.GroundID) {
		return invalidRequest("unknown ground %q", req.GroundID)
	}
	if !models.ValidSport(req.Sport) {
		return invalidRequest("unknown sport %q", req.Sport)
	}
	day, err := models.ParseDate(req.Date)
	if err != nil {
		return invalidRequest("malformed date %q, want YYYY-MM-DD", req.Date)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return invalidRequest("cannot book a past date")
	}
	if len(req.Slots) == 0 {
		return invalidRequest("at least one slot is required")
	}
	seen := make(map[string]bool, len(req.Slots))
	for _, slot := range req.Slots {
		if !models.ValidSlot(slot) {
			return invalidRequest("unknown slot %q", slot)
		}
		if seen[slot] {
			return invalidRequest("duplicate slot %q", slot)
		}
		seen[slot] = true
	}
	if req.CustomerEmail == "" {
		return invalidRequest("customer email is required")
	}
	return nil
}

func couponContext(req models.BookingRequest) models.CouponContext {
	return models.CouponContext{
		Category: req.GroundID,
		Sport:    req.Sport,
		Date:     req.Date,
		Slots:    req.Slots,
		Email:    req.CustomerEmail,
	}
}

// splitAdvance applies the match advance to a post-coupon price.
func splitAdvance(category string, finalPrice float64) (advance, balance float64) {
	if category != models.GroundMatch {
		return 0, finalPrice
	}
	advance = pricing.MatchAdvance
	if advance > finalPrice {
		advance = finalPrice
	}
	return advance, finalPrice - advance
}

func event(eventType string, b *models.Booking) models.BookingEvent {
	return models.BookingEvent{
		Type:      eventType,
		BookingID: b.BookingID,
		Reference: b.Reference,
		GroundID:  b.GroundID,
		Sport:     b.Sport,
		Date:      b.Date,
		Slots:     b.Slots,
		Status:    string(b.Status),
		Email:     b.CustomerEmail,
		Phone:     b.CustomerPhone,
		Timestamp: time.Now(),
	}
}
