package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solana-taxed-token/internal/domain"
)

type handler struct {
	stores Stores
}

// rewardRequest distinguishes absent fields from zero values.
type rewardRequest struct {
	Type      *domain.RewardType `json:"type"`
	Amount    *float64           `json:"amount"`
	Timestamp *time.Time         `json:"timestamp"`
	Wallet    *string            `json:"wallet"`
}

type snapshotRequest struct {
	Wallet    *string            `json:"wallet"`
	Timestamp *time.Time         `json:"timestamp"`
	Holdings  map[string]float64 `json:"holdings"`
}

// HealthCheck returns the health status of the API
// GET /health
func (h *handler) HealthCheck(c *gin.Context) {
	if h.stores.Ping != nil {
		if err := h.stores.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateReward stores a new reward
// POST /api/rewards
func (h *handler) CreateReward(c *gin.Context) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if req.Amount == nil {
		respondBadRequest(c, "amount is required")
		return
	}

	r := &domain.Reward{Amount: *req.Amount}
	if req.Type != nil {
		r.Type = *req.Type
	}
	if req.Wallet != nil {
		r.Wallet = *req.Wallet
	}
	if req.Timestamp != nil {
		r.Timestamp = *req.Timestamp
	}

	created, err := h.stores.Rewards.Create(c.Request.Context(), r)
	if err != nil {
		respondStoreError(c, err, "Reward not found")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListRewards returns rewards filtered by wallet and type
// GET /api/rewards?wallet=<address>&type=<type>
func (h *handler) ListRewards(c *gin.Context) {
	filter := domain.RewardFilter{
		Wallet: c.Query("wallet"),
		Type:   domain.RewardType(c.Query("type")),
	}

	rewards, err := h.stores.Rewards.List(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, rewards)
}

// GetReward returns one reward
// GET /api/rewards/:id
func (h *handler) GetReward(c *gin.Context) {
	r, err := h.stores.Rewards.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "Reward not found")
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateReward applies a partial update
// PUT /api/rewards/:id
func (h *handler) UpdateReward(c *gin.Context) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	updated, err := h.stores.Rewards.Update(c.Request.Context(), c.Param("id"), &domain.RewardUpdate{
		Type:      req.Type,
		Amount:    req.Amount,
		Timestamp: req.Timestamp,
		Wallet:    req.Wallet,
	})
	if err != nil {
		respondStoreError(c, err, "Reward not found")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteReward removes a reward
// DELETE /api/rewards/:id
func (h *handler) DeleteReward(c *gin.Context) {
	if err := h.stores.Rewards.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "Reward not found")
		return
	}
	respondWithMessage(c, http.StatusOK, "Reward deleted successfully")
}

// CreateSnapshot stores a new holdings snapshot
// POST /api/snapshots
func (h *handler) CreateSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	s := &domain.Snapshot{Holdings: req.Holdings}
	if req.Wallet != nil {
		s.Wallet = *req.Wallet
	}
	if req.Timestamp != nil {
		s.Timestamp = *req.Timestamp
	}

	created, err := h.stores.Snapshots.Create(c.Request.Context(), s)
	if err != nil {
		respondStoreError(c, err, "Snapshot not found")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListSnapshots returns snapshots filtered by wallet
// GET /api/snapshots?wallet=<address>
func (h *handler) ListSnapshots(c *gin.Context) {
	snaps, err := h.stores.Snapshots.List(c.Request.Context(), domain.SnapshotFilter{Wallet: c.Query("wallet")})
	if err != nil {
		respondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}

// GetSnapshot returns one snapshot
// GET /api/snapshots/:id
func (h *handler) GetSnapshot(c *gin.Context) {
	s, err := h.stores.Snapshots.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "Snapshot not found")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSnapshot applies a partial update; holdings are replaced whole
// PUT /api/snapshots/:id
func (h *handler) UpdateSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	updated, err := h.stores.Snapshots.Update(c.Request.Context(), c.Param("id"), &domain.SnapshotUpdate{
		Wallet:    req.Wallet,
		Timestamp: req.Timestamp,
		Holdings:  req.Holdings,
	})
	if err != nil {
		respondStoreError(c, err, "Snapshot not found")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteSnapshot removes a snapshot
// DELETE /api/snapshots/:id
func (h *handler) DeleteSnapshot(c *gin.Context) {
	if err := h.stores.Snapshots.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "Snapshot not found")
		return
	}
	respondWithMessage(c, http.StatusOK, "Snapshot deleted successfully")
}

// ListDeployments returns recorded deployment receipts
// GET /api/deployments
func (h *handler) ListDeployments(c *gin.Context) {
	receipts, err := h.stores.Deployments.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

// GetDeployment returns the receipt of one mint
// GET /api/deployments/:mint
func (h *handler) GetDeployment(c *gin.Context) {
	r, err := h.stores.Deployments.GetByMint(c.Request.Context(), c.Param("mint"))
	if err != nil {
		respondStoreError(c, err, "Deployment not found")
		return
	}
	c.JSON(http.StatusOK, r)
}
