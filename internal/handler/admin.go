package handler

import (
	"database/sql" // sentinel errors returned from repository
	"net/http"     // HTTP status codes
	"time"         // reporting windows

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/booking"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
)

// AdminHandler serves reporting and the manual booking interventions
// reserved for administrators.
type AdminHandler struct {
	Bookings *repository.BookingRepo
}

func NewAdminHandler(b *repository.BookingRepo) *AdminHandler {
	if b == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Bookings: b}
}

// Revenue handles GET /v1/admin/revenue?start=&end= (RFC3339 or
// YYYY-MM-DD).  Completed bookings in the window are rolled up per
// lot and per day on top of the raw rows.
func (h *AdminHandler) Revenue(c echo.Context) error {
	now := time.Now().UTC()
	start, ok := parseTimeParam(c.QueryParam("start"), now.AddDate(0, -1, 0))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start"})
	}
	end, ok := parseTimeParam(c.QueryParam("end"), now)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end before start"})
	}

	rows, err := h.Bookings.CompletedBetween(c.Request().Context(), start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type lotRollup struct {
		ParkingID   uint64  `json:"parking_id"`
		ParkingName string  `json:"parking_name"`
		Bookings    int     `json:"bookings"`
		Revenue     float64 `json:"revenue"`
	}
	var grand float64
	byLot := make(map[uint64]*lotRollup)
	byDay := make(map[string]float64)
	for _, r := range rows {
		grand += r.Total
		lr, ok := byLot[r.LotID]
		if !ok {
			lr = &lotRollup{ParkingID: r.LotID, ParkingName: r.LotName}
			byLot[r.LotID] = lr
		}
		lr.Bookings++
		lr.Revenue += r.Total
		byDay[r.CheckOutTime.UTC().Format("2006-01-02")] += r.Total
	}
	lots := make([]lotRollup, 0, len(byLot))
	for _, lr := range byLot {
		lr.Revenue = booking.Round2(lr.Revenue)
		lots = append(lots, *lr)
	}
	days := make(map[string]float64, len(byDay))
	for d, v := range byDay {
		days[d] = booking.Round2(v)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"start":         start,
		"end":           end,
		"total_revenue": booking.Round2(grand),
		"bookings":      rows,
		"by_parking":    lots,
		"by_day":        days,
	})
}

// Dashboard handles GET /v1/admin/dashboard: booking counts per
// status plus the most recent bookings.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	counts, err := h.Bookings.StatusCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	recent, err := h.Bookings.ListRecent(ctx, 10)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]bookingView, 0, len(recent))
	for _, b := range recent {
		views = append(views, toBookingView(b))
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_bookings": total,
		"by_status":      counts,
		"recent":         views,
	})
}

// Validate handles PUT /v1/admin/bookings/:id/validate.  Only a
// confirmed, not-yet-validated booking can be validated, and the
// status does not change.
func (h *AdminHandler) Validate(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booking.Status(b.Status) != booking.StatusConfirmed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only confirmed bookings can be validated"})
	}
	if b.AdminValidated {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrAlreadyValidated.Error()})
	}
	done, err := h.Bookings.AdminValidate(ctx, id, adminID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate failed"})
	}
	if !done {
		// Raced with another admin or a transition between read and write.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrAlreadyValidated.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking validated"})
}

// NoShow handles PUT /v1/admin/bookings/:id/no-show.  The transition
// is manual; nothing marks bookings no-show automatically.
func (h *AdminHandler) NoShow(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
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
	if _, err := booking.Transition(booking.Status(b.Status), booking.StatusNoShow); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	now := time.Now().UTC()
	if err := h.Bookings.MarkNoShowTx(ctx, tx, b.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no-show failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"message": "booking marked no-show"})
}

// parseTimeParam accepts RFC3339 or a bare date, falling back to def
// when the parameter is absent.
func parseTimeParam(raw string, def time.Time) (time.Time, bool) {
	if raw == "" {
		return def, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
