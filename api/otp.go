package api

import (
	"net/http"
	"time"

	"github.com/festivo/vendorbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type OTPHandler struct {
	service booking.BookingUseCase
}

type verifyOTPRequest struct {
	Code string `json:"code" binding:"required"`
}

type challengeResponse struct {
	BookingID         string `json:"booking_id"`
	ExpiresAt         string `json:"expires_at"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

func NewOTPHandler(service booking.BookingUseCase) *OTPHandler {
	return &OTPHandler{service: service}
}

func (h *OTPHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/otp", h.generate)
	router.POST("/:id/otp/verify", h.verify)
	router.POST("/:id/otp/resend", h.resend)
}

func (h *OTPHandler) generate(c *gin.Context) {
	challenge, err := h.service.GenerateOTP(c.Request.Context(), c.Param("id"), actorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, challengeResponse{
		BookingID:         challenge.BookingID,
		ExpiresAt:         challenge.ExpiresAt.Format(time.RFC3339),
		AttemptsRemaining: challenge.AttemptsRemaining,
	})
}

func (h *OTPHandler) verify(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.VerifyOTP(c.Request.Context(), c.Param("id"), actorRole(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking_id": updated.ID, "status": string(updated.Status)})
}

func (h *OTPHandler) resend(c *gin.Context) {
	challenge, err := h.service.ResendOTP(c.Request.Context(), c.Param("id"), actorRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, challengeResponse{
		BookingID:         challenge.BookingID,
		ExpiresAt:         challenge.ExpiresAt.Format(time.RFC3339),
		AttemptsRemaining: challenge.AttemptsRemaining,
	})
}
