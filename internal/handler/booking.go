package handler

import (
	"context"      // background context for post-commit publishing
	"database/sql" // sentinel errors returned from repository
	"net/http"     // HTTP status codes
	"strconv"      // pagination query parsing
	"time"         // interval validation

	"github.com/google/uuid"      // payment transaction identifiers
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/booking"
	"github.com/iliyamo/smart-parking-reservation/internal/config"
	"github.com/iliyamo/smart-parking-reservation/internal/model"
	"github.com/iliyamo/smart-parking-reservation/internal/queue"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/smart-parking-reservation/internal/service"
	"github.com/iliyamo/smart-parking-reservation/internal/utils"
)

// BookingHandler serves the customer booking lifecycle.  Creation and
// every status transition run inside a transaction so the status row,
// the availability counter and the pricing snapshot move together.
type BookingHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Parkings *repository.ParkingRepo
	Vehicles *repository.VehicleRepo
}

func NewBookingHandler(cfg config.Config, b *repository.BookingRepo, p *repository.ParkingRepo, v *repository.VehicleRepo) *BookingHandler {
	if b == nil || p == nil || v == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Bookings: b, Parkings: p, Vehicles: v}
}

type createBookingReq struct {
	ParkingID   uint64    `json:"parking_id"`
	VehicleID   *uint64   `json:"vehicle_id"`
	BookingType string    `json:"booking_type"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type bookingView struct {
	ID          uint64         `json:"id"`
	ParkingID   uint64         `json:"parking_id"`
	VehicleID   *uint64        `json:"vehicle_id,omitempty"`
	BookingType string         `json:"booking_type"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	Status      string         `json:"status"`
	Duration    model.Duration `json:"duration"`
	Pricing     model.Pricing  `json:"pricing"`
	QRToken     string         `json:"qr_code,omitempty"`
	QRExpiresAt *time.Time     `json:"qr_expires_at,omitempty"`
	CheckIn     *time.Time     `json:"check_in_time,omitempty"`
	CheckOut    *time.Time     `json:"check_out_time,omitempty"`
	Payment     *model.Payment `json:"payment,omitempty"`
	Rating      *model.Rating  `json:"rating,omitempty"`
	Feedback    *string        `json:"feedback,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toBookingView(b model.Booking) bookingView {
	v := bookingView{
		ID:          b.ID,
		ParkingID:   b.ParkingLotID,
		VehicleID:   b.VehicleID,
		BookingType: b.BookingType,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Status:      b.Status,
		Duration:    b.Duration,
		Pricing:     b.Pricing,
		QRToken:     b.QRToken,
		QRExpiresAt: b.QRExpiresAt,
		CheckIn:     b.CheckInTime,
		CheckOut:    b.CheckOutTime,
		Feedback:    b.Feedback,
		CreatedAt:   b.CreatedAt,
	}
	if b.Payment.Status != "" && b.Payment.Status != "pending" || b.Payment.Amount != nil {
		p := b.Payment
		v.Payment = &p
	}
	if b.Rating.Lot != nil || b.Rating.Service != nil || b.Rating.Overall != nil {
		r := b.Rating
		v.Rating = &r
	}
	return v
}

func validBookingType(t string) bool {
	return t == "hourly" || t == "daily" || t == "monthly"
}

// Create handles POST /v1/bookings.  The lot row is locked first so
// concurrent requests for the same lot serialize before the overlap
// check; the booking is stored `confirmed` with its QR token and the
// pricing snapshot for the requested interval.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ParkingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "parking_id required"})
	}
	if !validBookingType(req.BookingType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_type must be hourly, daily or monthly"})
	}
	now := time.Now().UTC()
	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	if !start.After(now) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be in the future"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}

	ctx := c.Request().Context()
	if req.VehicleID != nil {
		if _, err := h.Vehicles.GetByIDForOwner(ctx, *req.VehicleID, userID); err != nil {
			switch err {
			case sql.ErrNoRows:
				return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
			case repository.ErrForbidden:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "vehicle belongs to another user"})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
		}
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lot, err := h.Parkings.GetByIDTx(ctx, tx, req.ParkingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !lot.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
	}
	// The counter is a coarse gate; the overlap check below is what
	// actually protects the interval.
	if lot.AvailableSpots == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no spots available"})
	}

	overlaps, err := h.Bookings.HasOverlapTx(ctx, tx, lot.ID, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if overlaps {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrOverlap.Error()})
	}

	quote := booking.PriceInterval(start, end, lot.HourlyRate, false)
	hours, days, months := booking.DeriveDuration(start, end)

	b := model.Booking{
		UserID:       userID,
		ParkingLotID: lot.ID,
		VehicleID:    req.VehicleID,
		BookingType:  req.BookingType,
		StartTime:    start,
		EndTime:      end,
		Duration:     model.Duration{Hours: hours, Days: days, Months: months},
		Status:       string(booking.StatusConfirmed),
		Pricing: model.Pricing{
			Rate:     quote.Rate,
			Subtotal: quote.Subtotal,
			Tax:      quote.Tax,
			Total:    quote.Total,
		},
	}
	// The sparse unique index enforces token uniqueness; a collision
	// regenerates rather than overwrites.
	for attempt := 0; ; attempt++ {
		qr, err := utils.NewQRToken(start, h.Cfg.QRValidity)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue qr failed"})
		}
		b.QRToken = qr.Token
		b.QRGeneratedAt = &qr.GeneratedAt
		b.QRExpiresAt = &qr.ExpiresAt
		err = h.Bookings.CreateTx(ctx, tx, &b)
		if err == nil {
			break
		}
		if err == repository.ErrDuplicateToken && attempt < 3 {
			continue
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	b.CreatedAt = now

	event := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      userID,
		ParkingID:   lot.ID,
		ParkingName: lot.Name,
		City:        lot.City,
		BookingType: b.BookingType,
		StartsAt:    start.Format(time.RFC3339),
		EndsAt:      end.Format(time.RFC3339),
		Total:       b.Pricing.Total,
		ConfirmedAt: now.Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishBookingConfirmed(context.Background(), event) }()

	return c.JSON(http.StatusCreated, toBookingView(b))
}

// List handles GET /v1/bookings with ?status=&page=&limit=.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := c.QueryParam("status")
	if status != "" && !booking.Status(status).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx := c.Request().Context()
	bookings, err := h.Bookings.ListByUser(ctx, userID, status, limit, (page-1)*limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	total, err := h.Bookings.CountByUser(ctx, userID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings": out,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByIDForUser(c.Request().Context(), id, userID)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	return c.JSON(http.StatusOK, toBookingView(b))
}

// ActiveCount handles GET /v1/bookings/active/count.
func (h *BookingHandler) ActiveCount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Bookings.CountActiveByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// Cancel handles PUT /v1/bookings/:id/cancel.  Only pending and
// confirmed bookings can be cancelled, and only with enough notice
// before the start time.  A cancellation frees the spot.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByIDTx(ctx, tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if _, err := booking.Transition(booking.Status(b.Status), booking.StatusCancelled); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	now := time.Now().UTC()
	if err := booking.GuardCancel(now, b.StartTime, h.Cfg.CancelNotice); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Bookings.CancelTx(ctx, tx, b.ID, now, booking.ReasonUserCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	// Clamped: a booking that never consumed a spot cannot push the
	// counter past capacity.
	if _, err := h.Parkings.AdjustAvailabilityTx(ctx, tx, b.ParkingLotID, +1); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	event := queue.BookingClosedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		ParkingID: b.ParkingLotID,
		Status:    string(booking.StatusCancelled),
		Reason:    booking.ReasonUserCancelled,
		Total:     b.Pricing.Total,
		Hours:     b.Duration.Hours,
		ClosedAt:  now.Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishBookingClosed(context.Background(), event) }()

	return c.JSON(http.StatusOK, echo.Map{
		"message":             "booking cancelled",
		"cancellation_reason": booking.ReasonUserCancelled,
	})
}

type rateReq struct {
	Parking  *uint8  `json:"parking"`
	Service  *uint8  `json:"service"`
	Overall  *uint8  `json:"overall"`
	Feedback *string `json:"feedback"`
}

// Rate handles PUT /v1/bookings/:id/rate.  Ratings only apply to
// completed bookings and merge into any previous rating.
func (h *BookingHandler) Rate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req rateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Parking == nil && req.Service == nil && req.Overall == nil && req.Feedback == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to rate"})
	}
	in := booking.RatingInput{Lot: req.Parking, Service: req.Service, Overall: req.Overall, Feedback: req.Feedback}
	if err := booking.ValidateRating(in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	b, err := h.Bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	if booking.Status(b.Status) != booking.StatusCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrNotCompleted.Error()})
	}
	if err := h.Bookings.UpdateRating(ctx, b.ID, req.Parking, req.Service, req.Overall, req.Feedback); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save rating failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "rating saved"})
}

// paymentTxnID mints the identifier written on the payment record at
// check-out.
func paymentTxnID() string {
	return "txn-" + uuid.NewString()
}
