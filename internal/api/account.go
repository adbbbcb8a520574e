package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledger/internal/model"
	"ledger/pkg/interceptor"
)

type TransferRequest struct {
	To     int64 `json:"to" binding:"required"`
	Amount int64 `json:"amount"`
}

type TransferResponse struct {
	TransactionID int64  `json:"transaction_id"`
	Message       string `json:"message"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type TransactionResponse struct {
	ID        int64     `json:"id"`
	From      int64     `json:"from"`
	To        int64     `json:"to"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Number       int                   `json:"number"`
	Transactions []TransactionResponse `json:"transactions"`
}

// GetBalance handles GET /api/v1/account/balance.
func (h *Handler) GetBalance(c *gin.Context) {
	callerID, ok := interceptor.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	balance, err := h.transfers.GetBalance(c.Request.Context(), callerID)
	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		// Accounts are created with users; a caller without one is a
		// data-integrity failure, not a client error.
		h.logger.Errorw("no account for authenticated user", "user_id", callerID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "account missing for user"})
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable"})
	case err != nil:
		h.logger.Errorw("get balance", "user_id", callerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		c.JSON(http.StatusOK, BalanceResponse{Balance: balance})
	}
}

// ListTransactions handles GET /api/v1/account/transactions.
func (h *Handler) ListTransactions(c *gin.Context) {
	callerID, ok := interceptor.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	txns, err := h.transfers.ListTransactions(c.Request.Context(), callerID)
	switch {
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable"})
	case err != nil:
		h.logger.Errorw("list transactions", "user_id", callerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		resp := TransactionsResponse{
			Number:       len(txns),
			Transactions: make([]TransactionResponse, 0, len(txns)),
		}
		for _, txn := range txns {
			resp.Transactions = append(resp.Transactions, TransactionResponse{
				ID:        txn.ID,
				From:      txn.From,
				To:        txn.To,
				Amount:    txn.Amount,
				CreatedAt: txn.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Transfer handles POST /api/v1/account/transfer.
func (h *Handler) Transfer(c *gin.Context) {
	callerID, ok := interceptor.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	receipt, err := h.transfers.Transfer(c.Request.Context(), callerID, req.To, req.Amount)
	switch {
	case errors.Is(err, model.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid amount"})
	case errors.Is(err, model.ErrSenderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "sender account not found"})
	case errors.Is(err, model.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"message": "insufficient balance"})
	case errors.Is(err, model.ErrReceiverNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "receiver account not found"})
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "store unavailable, retry later"})
	case err != nil:
		h.logger.Errorw("transfer", "user_id", callerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	default:
		c.JSON(http.StatusOK, TransferResponse{
			TransactionID: receipt.TransactionID,
			Message:       "transfer successful",
		})
	}
}
