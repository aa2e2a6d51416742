package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"auction-ledger/internal/auth"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/internal/services"
)

type AuctionHandler struct {
	auctionService    *services.AuctionService
	settlementService *services.SettlementService
}

func NewAuctionHandler(
	auctionService *services.AuctionService,
	settlementService *services.SettlementService,
) *AuctionHandler {
	return &AuctionHandler{
		auctionService:    auctionService,
		settlementService: settlementService,
	}
}

// CreateAuction lists a new item in pending state
// POST /api/auctions
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	auction, err := h.auctionService.CreateAuction(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// GetAuction returns the live snapshot plus result and bid history
// GET /api/auctions/:id
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	response, err := h.auctionService.GetAuction(c.Request.Context(), auctionID, 50)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListAuctions returns auctions filtered by status and category
// GET /api/auctions
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	filter := repository.AuctionFilter{
		Status:   models.AuctionStatus(c.Query("status")),
		Category: models.ProductCategory(c.Query("category")),
	}
	limit, offset := pagination(c)

	auctions, total, err := h.auctionService.ListAuctions(c.Request.Context(), filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list auctions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auctions": auctions,
		"total":    total,
	})
}

// EndAuction closes an active auction manually and settles it
// POST /api/auctions/:id/end
func (h *AuctionHandler) EndAuction(c *gin.Context) {
	actor, exists := auth.Actor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	if err := h.auctionService.End(c.Request.Context(), auctionID, models.EndedByManual, &actor); err != nil {
		respondError(c, err)
		return
	}

	// The end already took effect; if settlement fails here the sweep
	// retries it, so report the ended auction rather than an error
	settlementPending := false
	if err := h.settlementService.Settle(c.Request.Context(), auctionID); err != nil {
		settlementPending = true
		log.Warnf("Settlement deferred for auction %s: %v", auctionID, err)
	}

	response, err := h.auctionService.GetAuction(c.Request.Context(), auctionID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load auction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auction":            response,
		"settlement_pending": settlementPending,
	})
}

// CancelAuction withdraws an auction that has no confirmed bids
// POST /api/auctions/:id/cancel
func (h *AuctionHandler) CancelAuction(c *gin.Context) {
	actor, exists := auth.Actor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	if err := h.auctionService.Cancel(c.Request.Context(), auctionID, actor); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// pagination parses limit/offset query parameters with sane bounds
func pagination(c *gin.Context) (int, int) {
	limit := 20
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
