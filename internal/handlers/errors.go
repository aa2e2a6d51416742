package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"auction-ledger/internal/auctionerrors"
)

// respondError maps the core error taxonomy onto HTTP statuses. Validation
// failures carry their specific reason to the caller; for a too-low bid the
// minimum acceptable amount rides along.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auctionerrors.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, auctionerrors.ErrInvalidTransition),
		errors.Is(err, auctionerrors.ErrCancellationNotAllowed),
		errors.Is(err, auctionerrors.ErrSettlementInProgress):
		status = http.StatusConflict
	case errors.Is(err, auctionerrors.ErrRetryExceeded):
		status = http.StatusServiceUnavailable
	}

	body := gin.H{"error": err.Error()}

	var tooLow *auctionerrors.BidTooLowError
	if errors.As(err, &tooLow) {
		body["minimum_bid"] = tooLow.Minimum
	}

	c.JSON(status, body)
}
