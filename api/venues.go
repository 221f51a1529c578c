package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sportease/sportease/internal/domain"
	"github.com/sportease/sportease/internal/service/venue"
)

type VenueHandler struct {
	service venue.VenueUseCase
}

func NewVenueHandler(service venue.VenueUseCase) *VenueHandler {
	return &VenueHandler{service: service}
}

func (h *VenueHandler) Register(router *gin.RouterGroup) {
	router.GET("/venues", h.list)
	router.GET("/venues/:id", h.get)
	router.GET("/venues/:id/slots", h.slots)
	router.GET("/venues/:id/reviews", h.reviews)
	router.POST("/owner/venues", h.ownerAdd)
	router.GET("/owner/venues", h.ownerList)
	router.GET("/suggestions", h.suggestions)
	router.POST("/reviews", h.addReview)
	router.POST("/seed", h.seed)
}

type venueResponse struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"ownerId"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Sports       []string `json:"sports"`
	Images       []string `json:"images"`
	PricePerHour float64  `json:"pricePerHour"`
	Amenities    []string `json:"amenities"`
	Rating       float64  `json:"rating"`
	IsSeeded     bool     `json:"isSeeded"`
}

func toVenueResponse(v domain.Venue) venueResponse {
	return venueResponse{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Name:         v.Name,
		Address:      v.Address,
		Lat:          v.Lat,
		Lng:          v.Lng,
		Sports:       v.Sports,
		Images:       v.Images,
		PricePerHour: v.PricePerHour,
		Amenities:    v.Amenities,
		Rating:       v.Rating,
		IsSeeded:     v.IsSeeded,
	}
}

func venueItems(venues []domain.Venue) []venueResponse {
	items := make([]venueResponse, 0, len(venues))
	for _, v := range venues {
		items = append(items, toVenueResponse(v))
	}
	return items
}

func (h *VenueHandler) list(c *gin.Context) {
	filter := domain.VenueFilter{
		Sport:      c.Query("sport"),
		City:       c.Query("city"),
		Query:      c.Query("q"),
		SeededOnly: c.Query("seeded_only") == "true",
		Limit:      intQuery(c, "limit", 20),
		Skip:       intQuery(c, "skip", 0),
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}

	venues, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	items := venueItems(venues)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *VenueHandler) get(c *gin.Context) {
	v, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toVenueResponse(*v))
}

type slotResponse struct {
	ID        string `json:"id"`
	VenueID   string `json:"venueId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

func (h *VenueHandler) slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotResponse{
			ID:        s.ID,
			VenueID:   s.VenueID,
			Date:      s.Date,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Status:    string(s.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addVenueRequest struct {
	OwnerID      string   `json:"ownerId" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Address      string   `json:"address" binding:"required"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Sports       []string `json:"sports" binding:"required"`
	Images       []string `json:"images"`
	PricePerHour float64  `json:"pricePerHour" binding:"required"`
	Amenities    []string `json:"amenities"`
}

func (h *VenueHandler) ownerAdd(c *gin.Context) {
	var req addVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v := &domain.Venue{
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Address:      req.Address,
		Lat:          req.Lat,
		Lng:          req.Lng,
		Sports:       req.Sports,
		Images:       req.Images,
		PricePerHour: req.PricePerHour,
		Amenities:    req.Amenities,
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	if v.Amenities == nil {
		v.Amenities = []string{}
	}

	if err := h.service.AddVenue(c.Request.Context(), c.Query("userId"), v); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": v.ID})
}

func (h *VenueHandler) ownerList(c *gin.Context) {
	ownerID := c.Query("userId")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	venues, err := h.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": venueItems(venues)})
}

func (h *VenueHandler) suggestions(c *gin.Context) {
	venues, err := h.service.Suggestions(c.Request.Context(), c.Query("city"), c.Query("sport"), intQuery(c, "limit", 5))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": venueItems(venues)})
}

type addReviewRequest struct {
	UserID  string `json:"userId" binding:"required"`
	VenueID string `json:"venueId" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (h *VenueHandler) addReview(c *gin.Context) {
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := &domain.Review{
		UserID:  req.UserID,
		VenueID: req.VenueID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.service.AddReview(c.Request.Context(), review); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": review.ID})
}

type reviewResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	VenueID   string `json:"venueId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (h *VenueHandler) reviews(c *gin.Context) {
	reviews, err := h.service.Reviews(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 20))
	if err != nil {
		fail(c, err)
		return
	}
	items := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, reviewResponse{
			ID:        r.ID,
			UserID:    r.UserID,
			VenueID:   r.VenueID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *VenueHandler) seed(c *gin.Context) {
	count, err := h.service.Seed(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seeded": true, "venues": count})
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
