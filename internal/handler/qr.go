package handler

import (
	"context"      // background context for post-commit publishing
	"database/sql" // sentinel errors returned from repository
	"net/http"     // HTTP status codes
	"strings"      // token normalization
	"time"         // scan timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/booking"
	"github.com/iliyamo/smart-parking-reservation/internal/config"
	"github.com/iliyamo/smart-parking-reservation/internal/model"
	"github.com/iliyamo/smart-parking-reservation/internal/queue"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/smart-parking-reservation/internal/service"
	"github.com/iliyamo/smart-parking-reservation/internal/utils"
)

// QRHandler serves the QR surface: image generation for the customer
// and the scan endpoints used by entry/exit terminals.  Terminals are
// trusted devices on the facility network, so scan and validate are
// not behind user auth; possession of an unexpired token is the
// credential.
type QRHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Parkings *repository.ParkingRepo
}

func NewQRHandler(cfg config.Config, b *repository.BookingRepo, p *repository.ParkingRepo) *QRHandler {
	if b == nil || p == nil {
		panic("nil repository passed to NewQRHandler")
	}
	return &QRHandler{Cfg: cfg, Bookings: b, Parkings: p}
}

// Generate handles GET /v1/qr/generate/:id.  It renders the booking's
// stored token into a PNG data URL.  The token itself is immutable;
// regenerating the image never reissues the credential.
func (h *QRHandler) Generate(c echo.Context) error {
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
	st := booking.Status(b.Status)
	if st != booking.StatusConfirmed && st != booking.StatusActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not open"})
	}
	if b.QRToken == "" || b.QRExpiresAt == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking has no qr code"})
	}
	if !time.Now().UTC().Before(*b.QRExpiresAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr code expired"})
	}

	payload := utils.QRPayload{
		BookingID: b.ID,
		Token:     b.QRToken,
		UserID:    b.UserID,
		ParkingID: b.ParkingLotID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Expires:   *b.QRExpiresAt,
	}
	dataURL, err := utils.RenderQRDataURL(payload, h.Cfg.QRImageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render qr failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": b.ID,
		"qr_code":    b.QRToken,
		"image":      dataURL,
		"expires":    b.QRExpiresAt,
	})
}

type scanReq struct {
	QRCode string `json:"qr_code"`
	Action string `json:"action"` // checkin or checkout
}

const (
	actionCheckIn  = "checkin"
	actionCheckOut = "checkout"
)

// Scan handles POST /v1/qr/scan from entry/exit terminals.  One
// endpoint covers both directions, but the terminal must state its
// intent: an entry terminal sends action=checkin, an exit terminal
// action=checkout.  A booking in the wrong status for the stated
// action is rejected, so a stray second entry scan cannot close the
// stay.  The lookup is scoped to unexpired tokens on open bookings,
// so an expired or consumed token reads as unknown.
func (h *QRHandler) Scan(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.QRCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code required"})
	}
	token := strings.ToLower(strings.TrimSpace(req.QRCode))
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != actionCheckIn && action != actionCheckOut {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be checkin or checkout"})
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

	b, err := h.Bookings.FindByQRCodeTx(ctx, tx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired qr code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()
	switch booking.Status(b.Status) {
	case booking.StatusConfirmed:
		if action != actionCheckIn {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not ready for check-out"})
		}
		return h.checkIn(c, ctx, tx, &committed, b, now)
	case booking.StatusActive:
		if action != actionCheckOut {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not ready for check-in"})
		}
		return h.checkOut(c, ctx, tx, &committed, b, now)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not open"})
}

func (h *QRHandler) checkIn(c echo.Context, ctx context.Context, tx *sql.Tx, committed *bool, b model.Booking, now time.Time) error {
	if err := booking.GuardCheckIn(now, b.StartTime, h.Cfg.CheckInWindow); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Bookings.CheckInTx(ctx, tx, b.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	available, err := h.Parkings.AdjustAvailabilityTx(ctx, tx, b.ParkingLotID, -1)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	*committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"action":          "check_in",
		"booking_id":      b.ID,
		"status":          string(booking.StatusActive),
		"check_in_time":   now,
		"spots_available": available,
	})
}

func (h *QRHandler) checkOut(c echo.Context, ctx context.Context, tx *sql.Tx, committed *bool, b model.Booking, now time.Time) error {
	// Final price covers the actual stay; the in-progress buffer is
	// gone because the interval is closed now.
	start := b.StartTime
	if b.CheckInTime != nil {
		start = *b.CheckInTime
	}
	quote := booking.PriceInterval(start, now, b.Pricing.Rate, false)
	hours, days, months := booking.DeriveDuration(start, now)

	txn := paymentTxnID()
	amount := quote.Total
	b.CheckOutTime = &now
	b.Duration = model.Duration{Hours: hours, Days: days, Months: months}
	b.Pricing = model.Pricing{Rate: quote.Rate, Subtotal: quote.Subtotal, Tax: quote.Tax, Total: quote.Total}
	b.Payment.Status = "pending" // settled at the exit terminal
	if b.Payment.Method == "" {
		b.Payment.Method = "card"
	}
	b.Payment.TransactionID = &txn
	b.Payment.Amount = &amount

	if err := h.Bookings.CheckOutTx(ctx, tx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-out failed"})
	}
	if _, err := h.Parkings.AdjustAvailabilityTx(ctx, tx, b.ParkingLotID, +1); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	*committed = true

	event := queue.BookingClosedEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		ParkingID: b.ParkingLotID,
		Status:    string(booking.StatusCompleted),
		Total:     quote.Total,
		Hours:     quote.Hours,
		ClosedAt:  now.Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishBookingClosed(context.Background(), event) }()

	return c.JSON(http.StatusOK, echo.Map{
		"action":         "check_out",
		"booking_id":     b.ID,
		"status":         string(booking.StatusCompleted),
		"check_out_time": now,
		"hours_billed":   quote.Hours,
		"total":          quote.Total,
		"transaction_id": txn,
	})
}

// Validate handles GET /v1/qr/validate/:token.  Read-only: terminals
// use it to preview a booking before committing a scan.
func (h *QRHandler) Validate(c echo.Context) error {
	token := strings.ToLower(strings.TrimSpace(c.Param("token")))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	b, err := h.Bookings.FindByQRCode(c.Request().Context(), token)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or expired qr code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":      true,
		"booking_id": b.ID,
		"parking_id": b.ParkingLotID,
		"status":     b.Status,
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
		"expires":    b.QRExpiresAt,
	})
}
