package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/festivo/vendorbooking/internal/domain"
	"github.com/festivo/vendorbooking/internal/service/review"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service review.ReviewUseCase
}

type reviewRequest struct {
	Rating         int    `json:"rating" binding:"required"`
	ServiceQuality int    `json:"service_quality"`
	Communication  int    `json:"communication"`
	ValueForMoney  int    `json:"value_for_money"`
	Punctuality    int    `json:"punctuality"`
	ReviewText     string `json:"review_text"`
}

type reviewResponse struct {
	BookingID      string `json:"booking_id"`
	VendorID       int64  `json:"vendor_id"`
	Rating         int    `json:"rating"`
	ServiceQuality int    `json:"service_quality"`
	Communication  int    `json:"communication"`
	ValueForMoney  int    `json:"value_for_money"`
	Punctuality    int    `json:"punctuality"`
	ReviewText     string `json:"review_text"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		BookingID:      r.BookingID,
		VendorID:       r.VendorID,
		Rating:         r.Rating,
		ServiceQuality: r.ServiceQuality,
		Communication:  r.Communication,
		ValueForMoney:  r.ValueForMoney,
		Punctuality:    r.Punctuality,
		ReviewText:     r.ReviewText,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

func NewReviewHandler(service review.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Register(bookings *gin.RouterGroup, vendors *gin.RouterGroup) {
	bookings.POST("/:id/review", h.submit)
	bookings.PUT("/:id/review", h.update)
	bookings.GET("/:id/review", h.get)
	vendors.GET("/:vendor_id/rating", h.vendorRating)
}

func (h *ReviewHandler) submit(c *gin.Context) {
	if role := actorRole(c); role != domain.RoleUser {
		respondError(c, domain.ErrForbidden)
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.SubmitReview(c.Request.Context(), review.SubmitReviewInput{
		BookingID:      c.Param("id"),
		Rating:         req.Rating,
		ServiceQuality: req.ServiceQuality,
		Communication:  req.Communication,
		ValueForMoney:  req.ValueForMoney,
		Punctuality:    req.Punctuality,
		ReviewText:     req.ReviewText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReviewResponse(created))
}

func (h *ReviewHandler) update(c *gin.Context) {
	if role := actorRole(c); role != domain.RoleUser {
		respondError(c, domain.ErrForbidden)
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateReview(c.Request.Context(), review.SubmitReviewInput{
		BookingID:      c.Param("id"),
		Rating:         req.Rating,
		ServiceQuality: req.ServiceQuality,
		Communication:  req.Communication,
		ValueForMoney:  req.ValueForMoney,
		Punctuality:    req.Punctuality,
		ReviewText:     req.ReviewText,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReviewResponse(updated))
}

func (h *ReviewHandler) get(c *gin.Context) {
	r, err := h.service.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(r))
}

func (h *ReviewHandler) vendorRating(c *gin.Context) {
	vendorID, err := strconv.ParseInt(c.Param("vendor_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id must be an integer"})
		return
	}

	rating, err := h.service.VendorRating(c.Request.Context(), vendorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendor_id":    rating.VendorID,
		"review_count": rating.ReviewCount,
		"rating_sum":   rating.RatingSum,
		"rating_avg":   rating.RatingAvg,
	})
}
