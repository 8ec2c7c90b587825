// Package wager provides the HTTP handlers for opening pools, placing
// wagers, and settling contests against the wager engine.
//
// Handlers take and return plain structured data; identity is an opaque
// pre-authenticated account id supplied by the caller. The engine
// performs no identity verification itself.
package wager

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ringside/wager-engine/internal/engine"
	"github.com/ringside/wager-engine/internal/metrics"
	"github.com/ringside/wager-engine/internal/model"
)

// Service handles wagering operations over HTTP.
type Service struct {
	eng   *engine.Engine
	wsHub *WSHub // optional hub for real-time broadcasts
}

// NewService creates a new wager service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(eng *engine.Engine, hub *WSHub) *Service {
	return &Service{eng: eng, wsHub: hub}
}

// --- Request/Response types ---

// DepositRequest is the JSON body for POST /accounts/{accountID}/deposit.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// CreatePoolRequest is the JSON body for POST /pools.
type CreatePoolRequest struct {
	PoolID   string   `json:"pool_id"`
	Outcomes []string `json:"outcomes"`
}

// WagerRequest is the JSON body for POST /wagers.
type WagerRequest struct {
	AccountID string `json:"account_id"`
	PoolID    string `json:"pool_id"`
	OutcomeID string `json:"outcome_id"`
	Amount    int64  `json:"amount"`
}

// WagerResponse is returned from POST /wagers.
type WagerResponse struct {
	Bet     model.Bet `json:"bet"`
	Balance int64     `json:"balance"`
}

// ResolveRequest is the JSON body for POST /pools/{poolID}/resolve.
type ResolveRequest struct {
	WinningOutcomeID string `json:"winning_outcome_id"`
}

// --- HTTP Handlers ---

// Deposit handles POST /api/v1/accounts/{accountID}/deposit
func (s *Service) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := s.eng.Deposit(accountID, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.Info("contribution accepted",
		"account", accountID,
		"amount", req.Amount,
		"balance", acc.Balance,
	)
	writeJSON(w, http.StatusOK, acc)
}

// GetAccount handles GET /api/v1/accounts/{accountID}
func (s *Service) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.eng.Account(chi.URLParam(r, "accountID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// GetTransactions handles GET /api/v1/accounts/{accountID}/transactions
func (s *Service) GetTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.eng.Transactions(chi.URLParam(r, "accountID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreatePool handles POST /api/v1/pools
func (s *Service) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PoolID == "" {
		writeError(w, "pool_id is required", http.StatusBadRequest)
		return
	}

	p, err := s.eng.OpenPool(req.PoolID, req.Outcomes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.OpenPools.Inc()

	slog.Info("pool opened",
		"pool", p.ID,
		"outcomes", len(p.Outcomes),
	)
	writeJSON(w, http.StatusCreated, p)
}

// ListPools handles GET /api/v1/pools
func (s *Service) ListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.eng.Pools()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if pools == nil {
		pools = []model.Pool{}
	}
	writeJSON(w, http.StatusOK, pools)
}

// GetPool handles GET /api/v1/pools/{poolID}
func (s *Service) GetPool(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.Pool(chi.URLParam(r, "poolID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetOdds handles GET /api/v1/pools/{poolID}/odds
func (s *Service) GetOdds(w http.ResponseWriter, r *http.Request) {
	odds, err := s.eng.Odds(chi.URLParam(r, "poolID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, odds)
}

// GetBets handles GET /api/v1/pools/{poolID}/bets
func (s *Service) GetBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.eng.Bets(chi.URLParam(r, "poolID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// ClosePool handles POST /api/v1/pools/{poolID}/close
func (s *Service) ClosePool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	p, err := s.eng.ClosePool(poolID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.OpenPools.Dec()

	slog.Info("pool closed", "pool", poolID, "total_pool", p.TotalPool)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:   "pool_closed",
			PoolID: poolID,
			Status: string(p.Status),
		})
	}
	writeJSON(w, http.StatusOK, p)
}

// PlaceWager handles POST /api/v1/wagers
func (s *Service) PlaceWager(w http.ResponseWriter, r *http.Request) {
	var req WagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		writeError(w, "account_id is required", http.StatusBadRequest)
		return
	}
	if req.PoolID == "" || req.OutcomeID == "" {
		writeError(w, "pool_id and outcome_id are required", http.StatusBadRequest)
		return
	}

	bet, balance, err := s.eng.PlaceWager(req.AccountID, req.PoolID, req.OutcomeID, req.Amount)
	if err != nil {
		metrics.WagersRejected.WithLabelValues(rejectReason(err)).Inc()
		writeDomainError(w, err)
		return
	}
	metrics.WagersTotal.Inc()
	metrics.WagerAmountTotal.Add(float64(req.Amount))

	slog.Info("wager accepted",
		"bet_id", bet.ID,
		"account", req.AccountID,
		"pool", req.PoolID,
		"outcome", req.OutcomeID,
		"amount", req.Amount,
		"display_odds", bet.DisplayOdds.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "wager_accepted",
			PoolID:    req.PoolID,
			OutcomeID: req.OutcomeID,
			Amount:    req.Amount,
			Odds:      bet.DisplayOdds.String(),
		})
	}

	writeJSON(w, http.StatusOK, WagerResponse{Bet: bet, Balance: balance})
}

// Resolve handles POST /api/v1/pools/{poolID}/resolve
func (s *Service) Resolve(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.WinningOutcomeID == "" {
		writeError(w, "winning_outcome_id is required", http.StatusBadRequest)
		return
	}

	result, err := s.eng.Resolve(poolID, req.WinningOutcomeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.SettlementsTotal.WithLabelValues("resolved").Inc()
	metrics.HouseTakeTotal.Add(float64(result.HouseTake))

	slog.Info("pool resolved",
		"pool", poolID,
		"winner", req.WinningOutcomeID,
		"total_pool", result.TotalPool,
		"house_take", result.HouseTake,
		"winners", len(result.Payouts),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:           "pool_resolved",
			PoolID:         poolID,
			Status:         string(result.Status),
			WinningOutcome: result.WinningOutcome,
			Amount:         result.TotalPool,
			HouseTake:      result.HouseTake,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// Cancel handles POST /api/v1/pools/{poolID}/cancel
func (s *Service) Cancel(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	result, err := s.eng.Cancel(poolID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.SettlementsTotal.WithLabelValues("cancelled").Inc()

	slog.Info("pool cancelled",
		"pool", poolID,
		"refunds", len(result.Payouts),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:   "pool_cancelled",
			PoolID: poolID,
			Status: string(result.Status),
			Amount: result.TotalPool,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// Leaderboard handles GET /api/v1/leaderboard?limit=N
func (s *Service) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.eng.Leaderboard(limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Error mapping ---

// statusFor maps domain errors onto HTTP status codes. Contention maps
// to 503 so callers know the request is safe to retry; everything else
// signals a caller-side error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidOutcomeSet),
		errors.Is(err, engine.ErrInvalidOutcome),
		errors.Is(err, engine.ErrUnknownOutcome):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrAccountNotFound),
		errors.Is(err, engine.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrDuplicatePool),
		errors.Is(err, engine.ErrPoolNotOpen),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrPoolNotClosed),
		errors.Is(err, engine.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, engine.ErrContendedResource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, engine.ErrPoolNotOpen):
		return "pool_not_open"
	case errors.Is(err, engine.ErrInvalidOutcome):
		return "invalid_outcome"
	case errors.Is(err, engine.ErrContendedResource):
		return "contended"
	default:
		return "other"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrContendedResource) {
		metrics.LockContention.Inc()
	}
	writeError(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
