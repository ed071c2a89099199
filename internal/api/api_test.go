package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-taxed-token/internal/domain"
	"solana-taxed-token/internal/storage/memory"
)

func newTestRouter(t *testing.T) (*gin.Engine, Stores) {
	t.Helper()
	stores := Stores{
		Rewards:     memory.NewRewardStore(),
		Snapshots:   memory.NewSnapshotStore(),
		Deployments: memory.NewDeploymentStore(),
	}
	return New(Config{}, stores).Router(), stores
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRewards_CRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/rewards", map[string]interface{}{
		"type":      "STAKING",
		"amount":    12.5,
		"wallet":    "wallet-1",
		"timestamp": "2024-05-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Reward](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 12.5, created.Amount)
	assert.False(t, created.CreatedAt.IsZero())

	w = doJSON(t, router, http.MethodPost, "/api/rewards", map[string]interface{}{
		"type": "TRADING", "amount": 1, "wallet": "wallet-2",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[domain.Reward](t, w)
	assert.False(t, second.Timestamp.IsZero(), "timestamp defaults to now")

	w = doJSON(t, router, http.MethodGet, "/api/rewards?wallet=wallet-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Reward](t, w), 1)

	w = doJSON(t, router, http.MethodGet, "/api/rewards?type=TRADING", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]domain.Reward](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "wallet-2", list[0].Wallet)

	w = doJSON(t, router, http.MethodGet, "/api/rewards/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[domain.Reward](t, w).ID)

	w = doJSON(t, router, http.MethodPut, "/api/rewards/"+created.ID, map[string]interface{}{"amount": 20})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.Reward](t, w)
	assert.Equal(t, 20.0, updated.Amount)
	assert.Equal(t, domain.RewardTypeStaking, updated.Type)
	assert.Equal(t, "wallet-1", updated.Wallet)

	w = doJSON(t, router, http.MethodDelete, "/api/rewards/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reward deleted successfully", decode[messageResponse](t, w).Message)

	w = doJSON(t, router, http.MethodGet, "/api/rewards/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Reward not found", decode[messageResponse](t, w).Message)
}

func TestRewards_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing amount", map[string]interface{}{"type": "STAKING", "wallet": "w"}},
		{"missing type", map[string]interface{}{"amount": 1, "wallet": "w"}},
		{"unknown type", map[string]interface{}{"type": "BONUS", "amount": 1, "wallet": "w"}},
		{"missing wallet", map[string]interface{}{"type": "OTHER", "amount": 1}},
		{"malformed json", `{"type":`},
		{"bad timestamp", map[string]interface{}{"type": "OTHER", "amount": 1, "wallet": "w", "timestamp": "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/rewards", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[messageResponse](t, w).Message)
		})
	}
}

func TestRewards_UpdateMissingAndInvalid(t *testing.T) {
	router, stores := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/api/rewards/nope", map[string]interface{}{"amount": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/rewards/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Reward not found", decode[messageResponse](t, w).Message)

	r, err := stores.Rewards.Create(context.Background(), &domain.Reward{Type: domain.RewardTypeOther, Wallet: "w"})
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodPut, "/api/rewards/"+r.ID, map[string]interface{}{"type": "BONUS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshots_CRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/snapshots", map[string]interface{}{
		"wallet":   "wallet-1",
		"holdings": map[string]float64{"IMG": 1000, "SOL": 1.5},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Snapshot](t, w)
	assert.Len(t, created.Holdings, 2)

	w = doJSON(t, router, http.MethodPost, "/api/snapshots", map[string]interface{}{"wallet": "wallet-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "holdings are required")

	w = doJSON(t, router, http.MethodGet, "/api/snapshots?wallet=wallet-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Snapshot](t, w), 1)

	w = doJSON(t, router, http.MethodPut, "/api/snapshots/"+created.ID, map[string]interface{}{
		"holdings": map[string]float64{"IMG": 1},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[domain.Snapshot](t, w)
	assert.Equal(t, map[string]float64{"IMG": 1}, updated.Holdings)
	assert.Equal(t, "wallet-1", updated.Wallet)

	w = doJSON(t, router, http.MethodDelete, "/api/snapshots/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Snapshot deleted successfully", decode[messageResponse](t, w).Message)

	w = doJSON(t, router, http.MethodGet, "/api/snapshots/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Snapshot not found", decode[messageResponse](t, w).Message)
}

func TestSnapshots_EmptyList(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestDeployments(t *testing.T) {
	router, stores := newTestRouter(t)

	require.NoError(t, stores.Deployments.Insert(context.Background(), &domain.DeploymentReceipt{
		MintAddress:            "Mint111",
		WalletAddress:          "Wallet111",
		TransferFeeBasisPoints: 500,
		Decimals:               6,
		TotalSupply:            1_000_000_000_000_000,
		DeployedAt:             time.Now().UTC(),
	}))

	w := doJSON(t, router, http.MethodGet, "/api/deployments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.DeploymentReceipt](t, w), 1)

	w = doJSON(t, router, http.MethodGet, "/api/deployments/Mint111", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint16(500), decode[domain.DeploymentReceipt](t, w).TransferFeeBasisPoints)

	w = doJSON(t, router, http.MethodGet, "/api/deployments/Unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeployments_NotRegisteredWithoutStore(t *testing.T) {
	router := New(Config{}, Stores{
		Rewards:   memory.NewRewardStore(),
		Snapshots: memory.NewSnapshotStore(),
	}).Router()

	w := doJSON(t, router, http.MethodGet, "/api/deployments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taxed_token_api_requests_total")

	down := New(Config{}, Stores{
		Rewards:   memory.NewRewardStore(),
		Snapshots: memory.NewSnapshotStore(),
		Ping:      func(context.Context) error { return errors.New("connection refused") },
	}).Router()
	w = doJSON(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestID_Propagated(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
