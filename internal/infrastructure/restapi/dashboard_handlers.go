package restapi

import (
	"errors"
	"net/http"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/app/service"
	"jpeg_swap/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIResponse wraps every payload the API returns.
type APIResponse struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type accountRequest struct {
	Account string `json:"account" binding:"required"`
}

type tokenRequest struct {
	TokenID string `json:"tokenId"`
}

// DashboardHandler serves the dashboard views and commands over HTTP.
type DashboardHandler struct {
	dashboard port.Dashboard
	logger    port.Logger
}

// NewDashboardHandler creates a new instance of DashboardHandler.
func NewDashboardHandler(d port.Dashboard, l port.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: d, logger: l}
}

func (h *DashboardHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.Connection()})
}

func (h *DashboardHandler) Connect(c *gin.Context) {
	conn, err := h.dashboard.Connect(c.Request.Context())
	if err != nil {
		h.fail(c, err, conn)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: conn})
}

func (h *DashboardHandler) Disconnect(c *gin.Context) {
	h.dashboard.Disconnect()
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.Connection()})
}

func (h *DashboardHandler) ChangeAccount(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	conn, err := h.dashboard.ChangeAccount(c.Request.Context(), req.Account)
	if err != nil {
		h.fail(c, err, conn)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: conn})
}

// Refresh runs one manual pass outside the scheduler.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if !h.dashboard.Connection().Connected {
		h.fail(c, entity.ErrNotConnected, nil)
		return
	}
	h.dashboard.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.Connection()})
}

func (h *DashboardHandler) ListPools(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.PoolList()})
}

// GetPool selects the pool and returns its inventory.
func (h *DashboardHandler) GetPool(c *gin.Context) {
	inv, err := h.dashboard.SelectPool(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: inv})
}

func (h *DashboardHandler) GetFactory(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.FactoryRegistry()})
}

func (h *DashboardHandler) GetStaking(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.StakingStats()})
}

func (h *DashboardHandler) GetReceipts(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Data: h.dashboard.Receipts()})
}

func (h *DashboardHandler) Swap(c *gin.Context) {
	var form entity.PoolCardForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.dashboard.Swap(c.Request.Context(), c.Param("address"), form)
	h.command(c, res, err)
}

func (h *DashboardHandler) StakeInPool(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.dashboard.StakeInPool(c.Request.Context(), c.Param("address"), req.TokenID)
	h.command(c, res, err)
}

func (h *DashboardHandler) Stake(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.dashboard.Stake(c.Request.Context(), req.TokenID)
	h.command(c, res, err)
}

func (h *DashboardHandler) Unstake(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.dashboard.Unstake(c.Request.Context(), req.TokenID)
	h.command(c, res, err)
}

func (h *DashboardHandler) Claim(c *gin.Context) {
	res, err := h.dashboard.Claim(c.Request.Context())
	h.command(c, res, err)
}

func (h *DashboardHandler) CreatePool(c *gin.Context) {
	var form entity.FactoryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.dashboard.CreatePool(c.Request.Context(), form)
	h.command(c, res, err)
}

// command writes a CommandResult with the status its error maps to.
func (h *DashboardHandler) command(c *gin.Context, res entity.CommandResult, err error) {
	if err != nil {
		h.fail(c, err, res)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Data: res})
}

func (h *DashboardHandler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, APIResponse{Error: "invalid request body: " + err.Error()})
}

func (h *DashboardHandler) fail(c *gin.Context, err error, data any) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, APIResponse{Data: data, Error: err.Error()})
}

func statusFor(err error) int {
	var (
		txErr   *entity.TransactionFailure
		connErr *entity.ConnectionError
	)
	switch {
	case errors.Is(err, service.ErrSurfaceBusy), errors.Is(err, entity.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, service.ErrWatchOnly):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMissingInput),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNothingToClaim):
		return http.StatusBadRequest
	case errors.As(err, &txErr), errors.As(err, &connErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
