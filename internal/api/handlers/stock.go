package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// defaultFlowDays is the investor-flow window when ?days is absent
const defaultFlowDays = 5

// StockHandler serves stored stock data
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StockHandler struct {
	stocks contracts.StockReader
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stocks contracts.StockReader, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stocks: stocks,
		logger: log.WithField("module", "stock_handler"),
	}
}

// ListStocks returns all registered stocks
// GET /api/stocks
func (h *StockHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stocks.GetAllStocks(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list stocks")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stocks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(stocks),
		"data":    stocks,
	})
}

// StockDetail is a stock with its latest price
type StockDetail struct {
	contracts.Security
	LatestPrice *contracts.DailyPrice `json:"latest_price"`
}

// GetStock returns one stock and its latest price
// GET /api/stocks/{ticker}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	sec, err := h.stocks.GetStock(ctx, ticker)
	if err != nil {
		h.logger.WithField("ticker", ticker).WithError(err).Error("Failed to get stock")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stock")
		return
	}
	if sec == nil {
		respondError(w, http.StatusNotFound, "stock not found: "+ticker)
		return
	}

	latest, err := h.stocks.GetLatestPrice(ctx, ticker)
	if err != nil {
		h.logger.WithField("ticker", ticker).WithError(err).Error("Failed to get latest price")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest price")
		return
	}

	respondData(w, StockDetail{Security: *sec, LatestPrice: latest})
}

// GetDailyPrices returns prices in an optional range, ascending
// GET /api/stocks/{ticker}/prices?from=YYYYMMDD&to=YYYYMMDD
func (h *StockHandler) GetDailyPrices(w http.ResponseWriter, r *http.Request) {
	ticker, from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	prices, err := h.stocks.GetDailyPrices(r.Context(), ticker, from, to)
	if err != nil {
		h.logger.WithField("ticker", ticker).WithError(err).Error("Failed to get daily prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve daily prices")
		return
	}
	respondData(w, prices)
}

// GetFundamentals returns fundamentals in an optional range, ascending
// GET /api/stocks/{ticker}/fundamentals?from=YYYYMMDD&to=YYYYMMDD
func (h *StockHandler) GetFundamentals(w http.ResponseWriter, r *http.Request) {
	ticker, from, to, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	funds, err := h.stocks.GetFundamentals(r.Context(), ticker, from, to)
	if err != nil {
		h.logger.WithField("ticker", ticker).WithError(err).Error("Failed to get fundamentals")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve fundamentals")
		return
	}
	respondData(w, funds)
}

// GetInvestorTrading returns the latest N investor-flow rows, newest first
// GET /api/stocks/{ticker}/investors?days=5
func (h *StockHandler) GetInvestorTrading(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	days := defaultFlowDays
	if s := r.URL.Query().Get("days"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = d
	}

	flows, err := h.stocks.GetForeignNetBuyingDays(r.Context(), ticker, days)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"days":   days,
		}).WithError(err).Error("Failed to get investor trading")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve investor trading")
		return
	}
	respondData(w, flows)
}

// rangeParams reads {ticker} and the optional from/to dates, writing 400 on bad input
func (h *StockHandler) rangeParams(w http.ResponseWriter, r *http.Request) (string, *time.Time, *time.Time, bool) {
	ticker := mux.Vars(r)["ticker"]

	from, err := optionalDate(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", nil, nil, false
	}
	to, err := optionalDate(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", nil, nil, false
	}
	if from != nil && to != nil && from.After(*to) {
		respondError(w, http.StatusBadRequest, "from must not be after to")
		return "", nil, nil, false
	}
	return ticker, from, to, true
}
