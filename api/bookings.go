package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sportease/sportease/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/slots/reserve", h.reserve)
	router.POST("/bookings/create", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id/qr", h.qr)
	router.POST("/payments/razorpay/confirm", h.confirm)
	router.GET("/owner/export", h.export)
}

type reserveRequest struct {
	UserID  string   `json:"userId"`
	SlotIDs []string `json:"slotIds" binding:"required"`
}

func (h *BookingHandler) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reserved, err := h.service.ReserveSlots(c.Request.Context(), booking.ReserveSlotsInput{
		UserID:  req.UserID,
		SlotIDs: req.SlotIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reserved": reserved})
}

type createBookingRequest struct {
	UserID  string   `json:"userId" binding:"required"`
	VenueID string   `json:"venueId" binding:"required"`
	SlotIDs []string `json:"slotIds" binding:"required"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createBookingResponse struct {
	BookingID     string        `json:"bookingId"`
	TotalAmount   float64       `json:"totalAmount"`
	Order         orderResponse `json:"order"`
	RazorpayKeyID string        `json:"razorpayKeyId"`
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:  req.UserID,
		VenueID: req.VenueID,
		SlotIDs: req.SlotIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, createBookingResponse{
		BookingID:   quote.BookingID,
		TotalAmount: quote.TotalAmount,
		Order: orderResponse{
			ID:       quote.Order.ID,
			Amount:   quote.Order.Amount,
			Currency: quote.Order.Currency,
		},
		RazorpayKeyID: quote.GatewayKeyID,
	})
}

type confirmRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	Signature string `json:"razorpay_signature"`
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmed, err := h.service.ConfirmPayment(c.Request.Context(), booking.ConfirmPaymentInput{
		BookingID: req.BookingID,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(confirmed.Status)})
}

type bookingResponse struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	VenueID       string   `json:"venueId"`
	SlotIDs       []string `json:"slotIds"`
	TotalAmount   float64  `json:"totalAmount"`
	Commission    float64  `json:"commission"`
	PaymentStatus string   `json:"paymentStatus"`
	Status        string   `json:"status"`
	BookingCode   string   `json:"bookingCode,omitempty"`
	ExpiresAt     string   `json:"expiresAt"`
	CreatedAt     string   `json:"createdAt"`
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), c.Query("userId"), c.Query("ownerId"))
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, bookingResponse{
			ID:            b.ID,
			UserID:        b.UserID,
			VenueID:       b.VenueID,
			SlotIDs:       b.SlotIDs,
			TotalAmount:   b.TotalAmount,
			Commission:    b.Commission,
			PaymentStatus: string(b.PaymentStatus),
			Status:        string(b.Status),
			BookingCode:   b.BookingCode,
			ExpiresAt:     b.ExpiresAt.Format(time.RFC3339),
			CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *BookingHandler) qr(c *gin.Context) {
	png, err := h.service.BookingQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *BookingHandler) export(c *gin.Context) {
	ownerID := c.Query("ownerId")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownerId is required"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=owner_export.csv")
	c.Header("Content-Type", "text/csv")
	if err := h.service.ExportOwnerBookings(c.Request.Context(), ownerID, c.Writer); err != nil {
		fail(c, err)
		return
	}
}
