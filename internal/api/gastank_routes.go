package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/gastank"
	"github.com/quantumdesk/quantum-backend/internal/models"
	"github.com/quantumdesk/quantum-backend/internal/repository"
)

type deductFeeRequest struct {
	UserID           string  `json:"userId"`
	Profit           float64 `json:"profit"`
	TradeExecutionID string  `json:"tradeExecutionId"`
}

type deductFeeResponse struct {
	Success       bool    `json:"success"`
	FeeAmount     float64 `json:"feeAmount"`
	NewBalance    float64 `json:"newBalance"`
	Status        string  `json:"status"`
	HighWaterMark float64 `json:"highWaterMark"`
	Message       string  `json:"message"`
}

func (s *Server) handleDeductFee(w http.ResponseWriter, r *http.Request) {
	var req deductFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := s.deps.Ledger.DeductFee(r.Context(), req.UserID, req.Profit, req.TradeExecutionID)
	if err != nil {
		switch {
		case errors.Is(err, gastank.ErrInvalidProfit):
			writeError(w, http.StatusBadRequest, "profit must be positive")
		case errors.Is(err, repository.ErrAccountNotFound):
			writeError(w, http.StatusNotFound, "gas tank account not found")
		default:
			s.log.Error("fee deduction failed",
				zap.String("user_id", req.UserID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "fee deduction failed")
		}
		return
	}

	if s.deps.Metrics != nil {
		outcome := "skipped"
		if result.Charged {
			outcome = "charged"
			s.deps.Metrics.FeesChargedUSD.Add(result.FeeAmount)
		}
		s.deps.Metrics.FeeDeductions.WithLabelValues(outcome).Inc()
	}
	if s.deps.Notify != nil && result.Status != models.GasTankActive {
		s.deps.Notify.GasTankAlert(req.UserID, result.Status, result.NewBalance)
	}

	message := "No fee due: equity did not exceed high-water mark"
	if result.Charged {
		message = fmt.Sprintf("Performance fee of $%.2f deducted", result.FeeAmount)
	}

	writeJSON(w, http.StatusOK, deductFeeResponse{
		Success:       true,
		FeeAmount:     result.FeeAmount,
		NewBalance:    result.NewBalance,
		Status:        string(result.Status),
		HighWaterMark: result.HighWaterMark,
		Message:       message,
	})
}

type createAccountRequest struct {
	UserID         string   `json:"userId"`
	InitialBalance *float64 `json:"initialBalance,omitempty"`
	FeeRate        *float64 `json:"feeRate,omitempty"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	initialBalance := s.deps.DefaultInitialBalance
	if req.InitialBalance != nil {
		initialBalance = *req.InitialBalance
	}
	feeRate := s.deps.DefaultFeeRate
	if req.FeeRate != nil {
		feeRate = *req.FeeRate
	}
	if initialBalance <= 0 {
		writeError(w, http.StatusBadRequest, "initialBalance must be positive")
		return
	}
	if feeRate < 0 || feeRate >= 1 {
		writeError(w, http.StatusBadRequest, "feeRate must be in [0, 1)")
		return
	}

	if existing, err := s.deps.GasTank.GetAccount(r.Context(), req.UserID); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "gas tank account already exists")
		return
	} else if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		s.log.Error("account lookup failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	acct, err := s.deps.GasTank.CreateAccount(r.Context(), req.UserID, initialBalance, feeRate)
	if err != nil {
		s.log.Error("create account failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	acct, err := s.deps.GasTank.GetAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "gas tank account not found")
			return
		}
		s.log.Error("fetch account failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch account")
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	limit := parseLimit(r, 50)

	txns, err := s.deps.GasTank.GetTransactions(r.Context(), userID, limit)
	if err != nil {
		s.log.Error("fetch transactions failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	if txns == nil {
		txns = []models.GasTankTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}
