// File: internal/listing/handler.go
package listing

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
)

// Handler struct holds dependencies for listing handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new listing handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for listing operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, donorMW gin.HandlerFunc) {
	listingGroup := router.Group("/listings")
	{
		listingGroup.GET("", h.searchListings)

		donorGroup := listingGroup.Group("")
		donorGroup.Use(authMW, donorMW)
		{
			donorGroup.GET("/mine", h.getMyListings)
			donorGroup.POST("", h.createListing)
			donorGroup.PUT("/:id", h.updateListing)
			donorGroup.DELETE("/:id", h.deleteListing)
			donorGroup.POST("/:id/image", h.uploadImage)
		}

		listingGroup.GET("/:id", h.getListingByID)
	}
}

func toResponses(listings []FoodListing) []ListingResponse {
	now := time.Now()
	out := make([]ListingResponse, len(listings))
	for i := range listings {
		out[i] = ToListingResponse(&listings[i], now)
	}
	return out
}

func (h *Handler) createListing(c *gin.Context) {
	donorID := common.GetUserIDFromContext(c)

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create listing: invalid request body", zap.Error(err), zap.String("donorID", donorID.String()))
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}

	l, err := h.service.CreateListing(c.Request.Context(), donorID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Listing created successfully.", ToListingResponse(l, time.Now()))
}

func (h *Handler) getListingByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}
	l, err := h.service.GetListingByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing retrieved successfully.", ToListingResponse(l, time.Now()))
}

func (h *Handler) updateListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}

	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}

	l, err := h.service.UpdateListing(c.Request.Context(), id, common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing updated successfully.", ToListingResponse(l, time.Now()))
}

func (h *Handler) deleteListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}
	if err := h.service.DeleteListing(c.Request.Context(), id, common.GetUserIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) searchListings(c *gin.Context) {
	var query ListingSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}
	if query.Status == "" {
		query.Status = string(StatusAvailable)
	}

	listings, pagination, err := h.service.SearchListings(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Listings retrieved successfully.", toResponses(listings), pagination)
}

func (h *Handler) getMyListings(c *gin.Context) {
	var query ListingSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.NewBindingError(err))
		return
	}

	listings, pagination, err := h.service.GetDonorListings(c.Request.Context(), common.GetUserIDFromContext(c), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your listings retrieved successfully.", toResponses(listings), pagination)
}

func (h *Handler) uploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid listing ID format."))
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("An image file is required in the 'image' form field."))
		return
	}

	l, err := h.service.UploadImage(c.Request.Context(), id, common.GetUserIDFromContext(c), file)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Listing image uploaded successfully.", ToListingResponse(l, time.Now()))
}
