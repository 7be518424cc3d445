package handler

import (
	"database/sql" // sentinel errors returned from repository
	"net/http"     // HTTP status codes
	"strings"      // input normalization

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/model"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
)

// ParkingHandler serves public lot browsing and the owner's CRUD.
type ParkingHandler struct {
	Parkings *repository.ParkingRepo
}

func NewParkingHandler(p *repository.ParkingRepo) *ParkingHandler {
	if p == nil {
		panic("nil repository passed to NewParkingHandler")
	}
	return &ParkingHandler{Parkings: p}
}

type parkingReq struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Street      string   `json:"street"`
	City        string   `json:"city"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	TotalSpots  uint32   `json:"total_spots"`
	HourlyRate  float64  `json:"hourly_rate"`
	DailyRate   *float64 `json:"daily_rate"`
	MonthlyRate *float64 `json:"monthly_rate"`
	IsActive    *bool    `json:"is_active"`
}

type parkingView struct {
	ID             uint64   `json:"id"`
	Name           string   `json:"name"`
	Description    *string  `json:"description,omitempty"`
	Street         string   `json:"street"`
	City           string   `json:"city"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	TotalSpots     uint32   `json:"total_spots"`
	AvailableSpots uint32   `json:"available_spots"`
	HourlyRate     float64  `json:"hourly_rate"`
	DailyRate      *float64 `json:"daily_rate,omitempty"`
	MonthlyRate    *float64 `json:"monthly_rate,omitempty"`
	IsActive       bool     `json:"is_active"`
}

func toParkingView(p model.ParkingLot) parkingView {
	return parkingView{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Street:         p.Street,
		City:           p.City,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		TotalSpots:     p.TotalSpots,
		AvailableSpots: p.AvailableSpots,
		HourlyRate:     p.HourlyRate,
		DailyRate:      p.DailyRate,
		MonthlyRate:    p.MonthlyRate,
		IsActive:       p.IsActive,
	}
}

func (r parkingReq) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name required"
	}
	if strings.TrimSpace(r.Street) == "" || strings.TrimSpace(r.City) == "" {
		return "street/city required"
	}
	if r.TotalSpots < 1 {
		return "total_spots must be at least 1"
	}
	if r.HourlyRate < 0 {
		return "hourly_rate cannot be negative"
	}
	if r.DailyRate != nil && *r.DailyRate < 0 {
		return "daily_rate cannot be negative"
	}
	if r.MonthlyRate != nil && *r.MonthlyRate < 0 {
		return "monthly_rate cannot be negative"
	}
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return "invalid coordinates"
	}
	return ""
}

// List handles GET /v1/parkings (public).  Only active lots are
// returned; ?city= filters by exact city name.
func (h *ParkingHandler) List(c echo.Context) error {
	lots, err := h.Parkings.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("city")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]parkingView, 0, len(lots))
	for _, p := range lots {
		out = append(out, toParkingView(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"parkings": out})
}

// Get handles GET /v1/parkings/:id (public).
func (h *ParkingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parking id"})
	}
	p, err := h.Parkings.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
	}
	return c.JSON(http.StatusOK, toParkingView(p))
}

// ListMine handles GET /v1/owner/parkings, including inactive lots.
func (h *ParkingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lots, err := h.Parkings.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]parkingView, 0, len(lots))
	for _, p := range lots {
		out = append(out, toParkingView(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"parkings": out})
}

// Create handles POST /v1/parkings (owner).  A new lot starts with
// every spot available.
func (h *ParkingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req parkingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.ParkingLot{
		OwnerID:     userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Street:      strings.TrimSpace(req.Street),
		City:        strings.TrimSpace(req.City),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		TotalSpots:  req.TotalSpots,
		HourlyRate:  req.HourlyRate,
		DailyRate:   req.DailyRate,
		MonthlyRate: req.MonthlyRate,
		IsActive:    active,
	}
	if err := h.Parkings.Create(c.Request().Context(), &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create parking failed"})
	}
	return c.JSON(http.StatusCreated, toParkingView(p))
}

// Update handles PUT /v1/parkings/:id (owner).  Shrinking capacity
// clamps the available counter down; it never raises it.
func (h *ParkingHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parking id"})
	}
	var req parkingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	p, err := h.Parkings.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Street = strings.TrimSpace(req.Street)
	p.City = strings.TrimSpace(req.City)
	p.Latitude = req.Latitude
	p.Longitude = req.Longitude
	p.TotalSpots = req.TotalSpots
	p.HourlyRate = req.HourlyRate
	p.DailyRate = req.DailyRate
	p.MonthlyRate = req.MonthlyRate
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Parkings.Update(ctx, &p, userID); err != nil {
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update parking failed"})
	}
	updated, err := h.Parkings.GetByID(ctx, id)
	if err == nil {
		p = updated
	}
	return c.JSON(http.StatusOK, toParkingView(p))
}

// Delete handles DELETE /v1/parkings/:id (owner).  Lots with open
// bookings cannot be removed.
func (h *ParkingHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parking id"})
	}
	if err := h.Parkings.Delete(c.Request().Context(), id, userID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "parking has active bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete parking failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
