package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/service/ledger"
	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	service ledger.LedgerUseCase
}

type slotRequest struct {
	VendorID  int64  `json:"vendor_id"`
	ShiftID   int64  `json:"shift_id"`
	EventDate string `json:"event_date"`
}

type holdResponse struct {
	VendorID   int64  `json:"vendor_id"`
	ShiftID    int64  `json:"shift_id"`
	EventDate  string `json:"event_date"`
	HolderKind string `json:"holder_kind"`
	HolderRef  string `json:"holder_ref"`
	AcquiredAt string `json:"acquired_at"`
}

var errInvalidSlotParams = errors.New("vendor_id, shift_id and a YYYY-MM-DD date are required")

func NewAvailabilityHandler(service ledger.LedgerUseCase) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

func (h *AvailabilityHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.isAvailable)
	router.GET("/vendors/:vendor_id/holds", h.vendorHolds)
	router.POST("/reservations", h.manualReserve)
	router.DELETE("/reservations", h.manualRelease)
}

func (h *AvailabilityHandler) isAvailable(c *gin.Context) {
	key, err := slotKeyFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	available, err := h.service.IsAvailable(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendor_id":  key.VendorID,
		"shift_id":   key.ShiftID,
		"event_date": key.DateString(),
		"available":  available,
	})
}

func (h *AvailabilityHandler) vendorHolds(c *gin.Context) {
	vendorID, err := strconv.ParseInt(c.Param("vendor_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id must be an integer"})
		return
	}
	date := c.Query("date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as YYYY-MM-DD"})
		return
	}

	holds, err := h.service.VendorHolds(c.Request.Context(), vendorID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]holdResponse, 0, len(holds))
	for i := range holds {
		out = append(out, toHoldResponse(&holds[i]))
	}
	c.JSON(http.StatusOK, gin.H{"holds": out})
}

func (h *AvailabilityHandler) manualReserve(c *gin.Context) {
	if role := actorRole(c); role != domain.RoleVendor {
		respondError(c, domain.ErrForbidden)
		return
	}

	key, err := slotKeyFromBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hold, err := h.service.ManualReserve(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toHoldResponse(hold))
}

func (h *AvailabilityHandler) manualRelease(c *gin.Context) {
	if role := actorRole(c); role != domain.RoleVendor {
		respondError(c, domain.ErrForbidden)
		return
	}

	key, err := slotKeyFromBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ManualRelease(c.Request.Context(), key); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toHoldResponse(h *domain.ShiftHold) holdResponse {
	return holdResponse{
		VendorID:   h.VendorID,
		ShiftID:    h.ShiftID,
		EventDate:  h.EventDate.Format(domain.DateLayout),
		HolderKind: string(h.HolderKind),
		HolderRef:  h.HolderRef,
		AcquiredAt: h.AcquiredAt.Format(time.RFC3339),
	}
}

func slotKeyFromQuery(c *gin.Context) (domain.SlotKey, error) {
	vendorID, err := strconv.ParseInt(c.Query("vendor_id"), 10, 64)
	if err != nil {
		return domain.SlotKey{}, errInvalidSlotParams
	}
	shiftID, err := strconv.ParseInt(c.Query("shift_id"), 10, 64)
	if err != nil {
		return domain.SlotKey{}, errInvalidSlotParams
	}
	date, err := time.Parse(domain.DateLayout, c.Query("date"))
	if err != nil {
		return domain.SlotKey{}, errInvalidSlotParams
	}
	return domain.SlotKey{VendorID: vendorID, ShiftID: shiftID, EventDate: date}, nil
}

func slotKeyFromBody(c *gin.Context) (domain.SlotKey, error) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return domain.SlotKey{}, err
	}
	if req.VendorID <= 0 || req.ShiftID <= 0 {
		return domain.SlotKey{}, errInvalidSlotParams
	}
	date, err := time.Parse(domain.DateLayout, req.EventDate)
	if err != nil {
		return domain.SlotKey{}, errInvalidSlotParams
	}
	return domain.SlotKey{VendorID: req.VendorID, ShiftID: req.ShiftID, EventDate: date}, nil
}
