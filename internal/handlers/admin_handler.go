package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"auction-ledger/internal/repository"
	"auction-ledger/internal/services"
)

type AdminHandler struct {
	repo           *repository.Repository
	auctionService *services.AuctionService
	userService    *services.UserService
	staleAfter     time.Duration
}

func NewAdminHandler(
	repo *repository.Repository,
	auctionService *services.AuctionService,
	userService *services.UserService,
	staleAfter time.Duration,
) *AdminHandler {
	return &AdminHandler{
		repo:           repo,
		auctionService: auctionService,
		userService:    userService,
		staleAfter:     staleAfter,
	}
}

// ActivateAuction explicitly activates a pending auction ahead of its
// scheduled start time
// POST /api/admin/auctions/:id/activate
func (h *AdminHandler) ActivateAuction(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	if err := h.auctionService.Activate(c.Request.Context(), auctionID, true); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// ListStaleAuctions returns ended auctions whose settlement has been
// outstanding for longer than the stale threshold
// GET /api/admin/auctions/stale
func (h *AdminHandler) ListStaleAuctions(c *gin.Context) {
	cutoff := time.Now().Add(-h.staleAfter)

	auctions, err := h.repo.ListStaleEnded(c.Request.Context(), cutoff)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auctions": auctions,
		"count":    len(auctions),
	})
}

// ListUsers returns a paginated user listing
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

// VerifyKYC marks a user as KYC verified
// POST /api/admin/users/:id/verify-kyc
func (h *AdminHandler) VerifyKYC(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.VerifyKYC(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// VerifyEmail marks a user's email address as verified
// POST /api/admin/users/:id/verify-email
func (h *AdminHandler) VerifyEmail(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.VerifyEmail(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// BanUser bans a user account
// POST /api/admin/users/:id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.setBanned(c, true)
}

// UnbanUser restores a banned user account
// POST /api/admin/users/:id/unban
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.SetBanned(c.Request.Context(), userID, banned)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// PromoteUser grants a user the admin role
// POST /api/admin/users/:id/promote
func (h *AdminHandler) PromoteUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.PromoteToAdmin(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func parseUserID(c *gin.Context) (uint, bool) {
	var uri struct {
		ID uint `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uri.ID, true
}
