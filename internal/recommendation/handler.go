package recommendation

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/common"
	"shareaplate_backend/internal/listing"
)

// ListingLookup resolves listing ownership.
type ListingLookup interface {
	GetListingByID(ctx context.Context, id uuid.UUID) (*listing.FoodListing, error)
}

// Handler serves stored recommendations to recipients and donors.
type Handler struct {
	repo     Repository
	listings ListingLookup
	logger   *zap.Logger
}

func NewHandler(repo Repository, listings ListingLookup, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, listings: listings, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, donorMW, recipientMW gin.HandlerFunc) {
	group := router.Group("/recommendations")
	group.Use(authMW)
	{
		group.GET("/mine", recipientMW, h.listMine)
		group.GET("/listing/:listingId", donorMW, h.listForListing)
	}
}

func (h *Handler) listMine(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	recs, pagination, err := h.repo.ListByRecipient(c.Request.Context(), common.GetUserIDFromContext(c),
		common.PaginationQuery{Page: page, PageSize: pageSize})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	common.RespondPaginated(c, "Recommendations retrieved successfully.", recs, pagination)
}

func (h *Handler) listForListing(c *gin.Context) {
	listingID, err := common.ParseUUIDParam(c, "listingId")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	l, err := h.listings.GetListingByID(c.Request.Context(), listingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if l.DonorID != common.GetUserIDFromContext(c) && common.GetUserRoleFromContext(c) != common.RoleAdmin {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not own this listing."))
		return
	}
	recs, err := h.repo.ListByListing(c.Request.Context(), listingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	common.RespondOK(c, "Recommendations retrieved successfully.", recs)
}
