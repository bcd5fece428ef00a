package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/models"
	"github.com/quantumdesk/quantum-backend/internal/repository"
)

type createPositionRequest struct {
	Symbol          string   `json:"symbol"`
	Side            string   `json:"side"`
	EntryPrice      float64  `json:"entryPrice"`
	Quantity        float64  `json:"quantity"`
	StopLossPrice   *float64 `json:"stopLossPrice,omitempty"`
	TakeProfitPrice *float64 `json:"takeProfitPrice,omitempty"`
}

func (req *createPositionRequest) validate() string {
	if req.Symbol == "" {
		return "symbol is required"
	}
	if !models.Side(req.Side).Valid() {
		return "side must be LONG or SHORT"
	}
	if req.EntryPrice <= 0 {
		return "entryPrice must be positive"
	}
	if req.Quantity <= 0 {
		return "quantity must be positive"
	}
	if req.StopLossPrice != nil && *req.StopLossPrice <= 0 {
		return "stopLossPrice must be positive"
	}
	if req.TakeProfitPrice != nil && *req.TakeProfitPrice <= 0 {
		return "takeProfitPrice must be positive"
	}
	return ""
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req createPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, err := s.deps.Positions.Create(r.Context(), &models.Position{
		Symbol:          req.Symbol,
		Side:            models.Side(req.Side),
		EntryPrice:      req.EntryPrice,
		Quantity:        req.Quantity,
		StopLossPrice:   req.StopLossPrice,
		TakeProfitPrice: req.TakeProfitPrice,
	})
	if err != nil {
		s.log.Error("create position failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create position")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.deps.Positions.GetOpen(r.Context())
	if err != nil {
		s.log.Error("fetch open positions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch positions")
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	positions, err := s.deps.Positions.GetClosed(r.Context(), limit)
	if err != nil {
		s.log.Error("fetch closed positions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch positions")
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	p, err := s.deps.Positions.GetByID(r.Context(), id)
	if err != nil {
		s.log.Error("fetch position failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch position")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "position not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type manualCloseRequest struct {
	// Price to close at; defaults to the last observed price.
	Price *float64 `json:"price,omitempty"`
}

func (s *Server) handleManualClose(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	var req manualCloseRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Price != nil && *req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	p, err := s.deps.Positions.GetByID(r.Context(), id)
	if err != nil {
		s.log.Error("fetch position failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch position")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "position not found")
		return
	}

	price := p.CurrentPrice
	if req.Price != nil {
		price = *req.Price
	}

	closed, err := s.deps.Positions.Close(r.Context(), id, price, p.UnrealizedPnLAt(price), models.CloseManual)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotOpen) {
			writeError(w, http.StatusConflict, "position is not open")
			return
		}
		s.log.Error("manual close failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to close position")
		return
	}
	writeJSON(w, http.StatusOK, closed)
}
