package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
)

type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      core.Money           `json:"amount"`
	Currency    string               `json:"currency"`
	Category    *string              `json:"category"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
	ReceiptID   string               `json:"receiptId"`
}

type transactionUpdateRequest struct {
	Type        *core.TransactionType `json:"type"`
	Amount      *core.Money           `json:"amount"`
	Currency    *string               `json:"currency"`
	Category    *string               `json:"category"`
	Description *string               `json:"description"`
	Date        *core.Date            `json:"date"`
	ReceiptID   *string               `json:"receiptId"`
}

type transactionResponse struct {
	ID          string               `json:"id"`
	Type        core.TransactionType `json:"type"`
	Amount      core.Money           `json:"amount"`
	Currency    string               `json:"currency"`
	Category    *string              `json:"category"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
	ReceiptID   string               `json:"receiptId,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

type listResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Category:    tx.Category,
		Description: tx.Description,
		Date:        tx.Date,
		ReceiptID:   tx.ReceiptID,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, core.Validationf("malformed request body: %v", err))
		return
	}

	created, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:      UserID(r.Context()),
		Type:        req.Type,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		ReceiptID:   req.ReceiptID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, core.Validationf("malformed request body: %v", err))
		return
	}

	updated, err := s.transactions.Update(r.Context(), UserID(r.Context()), r.PathValue("id"), core.TransactionUpdate{
		Type:        req.Type,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		ReceiptID:   req.ReceiptID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), UserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, total, err := s.transactions.List(r.Context(), UserID(r.Context()), filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page = page.Normalize()
	resp := listResponse{
		Transactions: make([]transactionResponse, 0, len(txs)),
		Total:        total,
		Page:         page.Page,
		Limit:        page.Limit,
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFilter reads the shared filter params. Malformed dates and unknown
// types are rejected rather than silently ignored.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	var f core.Filter

	if v := q.Get("type"); v != "" {
		t := core.TransactionType(v)
		if !t.Valid() {
			return core.Filter{}, core.Validationf("invalid type filter %q", v)
		}
		f.Type = t
	}
	f.Category = q.Get("category")

	if v := q.Get("start"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, core.Validationf("invalid start date %q", v)
		}
		f.Start = &d
	}
	if v := q.Get("end"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, core.Validationf("invalid end date %q", v)
		}
		f.End = &d
	}
	return f, nil
}

func parsePage(r *http.Request) (core.Page, error) {
	q := r.URL.Query()
	var p core.Page

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Page{}, core.Validationf("invalid page %q", v)
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Page{}, core.Validationf("invalid limit %q", v)
		}
		p.Limit = n
	}
	return p, nil
}
