package handlers

import (
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles withdrawal requests and their review
type WalletHandler struct {
	walletService *services.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetMethods handles GET /wallet/methods
func (h *WalletHandler) GetMethods(c *gin.Context) {
	c.JSON(http.StatusOK, h.walletService.Methods())
}

// GetTransactions handles GET /me/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	txs, err := h.walletService.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// RequestWithdrawal handles POST /wallet/withdrawals. The Idempotency-Key
// header is used when the body carries no key.
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	var req models.WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	tx, replayed, err := h.walletService.RequestWithdrawal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.JSON(http.StatusOK, tx)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// GetPendingWithdrawals handles GET /admin/withdrawals
func (h *WalletHandler) GetPendingWithdrawals(c *gin.Context) {
	c.JSON(http.StatusOK, h.walletService.PendingWithdrawals(c.Request.Context()))
}

// ApproveWithdrawal handles POST /admin/withdrawals/:id/approve
func (h *WalletHandler) ApproveWithdrawal(c *gin.Context) {
	tx, err := h.walletService.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// RejectWithdrawal handles POST /admin/withdrawals/:id/reject
func (h *WalletHandler) RejectWithdrawal(c *gin.Context) {
	tx, err := h.walletService.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}
