package api

import (
	"net/http"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	VendorID           int64  `json:"vendor_id"`
	ShiftID            int64  `json:"shift_id"`
	PackageID          int64  `json:"package_id"`
	EventDate          string `json:"event_date"`
	EventTime          string `json:"event_time"`
	EventAddress       string `json:"event_address"`
	SpecialRequirement string `json:"special_requirement"`
}

type bookingResponse struct {
	ID                 string `json:"id"`
	VendorID           int64  `json:"vendor_id"`
	UserID             int64  `json:"user_id"`
	ShiftID            int64  `json:"shift_id"`
	PackageID          int64  `json:"package_id"`
	EventDate          string `json:"event_date"`
	EventTime          string `json:"event_time"`
	EventAddress       string `json:"event_address"`
	SpecialRequirement string `json:"special_requirement,omitempty"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                 b.ID,
		VendorID:           b.VendorID,
		UserID:             b.UserID,
		ShiftID:            b.ShiftID,
		PackageID:          b.PackageID,
		EventDate:          b.EventDate.Format(domain.DateLayout),
		EventTime:          b.EventTime,
		EventAddress:       b.EventAddress,
		SpecialRequirement: b.SpecialRequirement,
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/accept", h.vendorAccept)
	router.POST("/:id/reject", h.vendorReject)
	router.POST("/:id/approve", h.adminApprove)
	router.POST("/:id/decline", h.adminReject)
	router.POST("/:id/cancel", h.userCancel)
	router.POST("/:id/complete", h.markCompleted)
	router.POST("/:id/review-window", h.openReviewWindow)
}

func (h *BookingHandler) create(c *gin.Context) {
	if role := actorRole(c); role != domain.RoleUser {
		respondError(c, domain.ErrForbidden)
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:             actorID(c),
		VendorID:           req.VendorID,
		ShiftID:            req.ShiftID,
		PackageID:          req.PackageID,
		EventDate:          req.EventDate,
		EventTime:          req.EventTime,
		EventAddress:       req.EventAddress,
		SpecialRequirement: req.SpecialRequirement,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

type transitionCall func(c *gin.Context) (*domain.Booking, error)

func (h *BookingHandler) transition(c *gin.Context, call transitionCall) {
	updated, err := call(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) vendorAccept(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.VendorAccept(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) vendorReject(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.VendorReject(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) adminApprove(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.AdminApprove(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) adminReject(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.AdminReject(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) userCancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.UserCancel(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) markCompleted(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.MarkCompleted(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}

func (h *BookingHandler) openReviewWindow(c *gin.Context) {
	h.transition(c, func(c *gin.Context) (*domain.Booking, error) {
		return h.service.OpenReviewWindow(c.Request.Context(), c.Param("id"), actorRole(c))
	})
}
