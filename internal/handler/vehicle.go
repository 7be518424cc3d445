package handler

import (
	"database/sql" // sentinel errors returned from repository
	"net/http"     // HTTP status codes
	"strings"      // input normalization
	"time"         // timestamps in responses

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/smart-parking-reservation/internal/model"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
)

// VehicleHandler serves the customer's vehicle CRUD.  Ownership is
// enforced in the repository; handlers only translate errors.
type VehicleHandler struct {
	Vehicles *repository.VehicleRepo
}

func NewVehicleHandler(v *repository.VehicleRepo) *VehicleHandler {
	if v == nil {
		panic("nil repository passed to NewVehicleHandler")
	}
	return &VehicleHandler{Vehicles: v}
}

type vehicleReq struct {
	LicensePlate string  `json:"license_plate"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Color        *string `json:"color"`
	Year         *uint32 `json:"year"`
	IsDefault    bool    `json:"is_default"`
}

type vehicleView struct {
	ID           uint64    `json:"id"`
	LicensePlate string    `json:"license_plate"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Color        *string   `json:"color,omitempty"`
	Year         *uint32   `json:"year,omitempty"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func toVehicleView(v model.Vehicle) vehicleView {
	return vehicleView{
		ID:           v.ID,
		LicensePlate: v.LicensePlate,
		Make:         v.Make,
		Model:        v.Model,
		Color:        v.Color,
		Year:         v.Year,
		IsDefault:    v.IsDefault,
		CreatedAt:    v.CreatedAt,
	}
}

func (r vehicleReq) validate() string {
	if strings.TrimSpace(r.LicensePlate) == "" {
		return "license_plate required"
	}
	if strings.TrimSpace(r.Make) == "" || strings.TrimSpace(r.Model) == "" {
		return "make/model required"
	}
	if r.Year != nil && (*r.Year < 1900 || *r.Year > 2100) {
		return "year out of range"
	}
	return ""
}

// Create handles POST /v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	v := model.Vehicle{
		OwnerID:      userID,
		LicensePlate: req.LicensePlate,
		Make:         strings.TrimSpace(req.Make),
		Model:        strings.TrimSpace(req.Model),
		Color:        req.Color,
		Year:         req.Year,
		IsDefault:    req.IsDefault,
	}
	ctx := c.Request().Context()
	if err := h.Vehicles.Create(ctx, &v); err != nil {
		if err == repository.ErrPlateExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "license plate already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create vehicle failed"})
	}
	if req.IsDefault {
		// New default clears the flag on the rest.
		_ = h.Vehicles.SetDefault(ctx, v.ID, userID)
	}
	return c.JSON(http.StatusCreated, toVehicleView(v))
}

// List handles GET /v1/vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicles, err := h.Vehicles.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, toVehicleView(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"vehicles": out})
}

// Update handles PUT /v1/vehicles/:id.
func (h *VehicleHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	v, err := h.Vehicles.GetByIDForOwner(ctx, id, userID)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	v.LicensePlate = req.LicensePlate
	v.Make = strings.TrimSpace(req.Make)
	v.Model = strings.TrimSpace(req.Model)
	v.Color = req.Color
	v.Year = req.Year
	if err := h.Vehicles.Update(ctx, &v); err != nil {
		if err == repository.ErrPlateExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "license plate already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
	}
	if req.IsDefault && !v.IsDefault {
		if err := h.Vehicles.SetDefault(ctx, v.ID, userID); err == nil {
			v.IsDefault = true
		}
	}
	return c.JSON(http.StatusOK, toVehicleView(v))
}

// Delete handles DELETE /v1/vehicles/:id.  Vehicles referenced by a
// booking that is not yet terminal cannot be removed.
func (h *VehicleHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
	}
	if err := h.Vehicles.Delete(c.Request().Context(), id, userID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "vehicle has active bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete vehicle failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
