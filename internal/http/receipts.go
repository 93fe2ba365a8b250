package http

import (
	"errors"
	"io"
	"net/http"

	"fintrack/internal/core"
)

type receiptUploadResponse struct {
	Success         bool       `json:"success"`
	TransactionData core.Draft `json:"transactionData"`
}

// handleReceiptUpload accepts one multipart file under the "receipt" field
// and returns the extracted draft. Nothing is persisted; the client confirms
// the draft through POST /api/transactions.
func (s *Server) handleReceiptUpload(w http.ResponseWriter, r *http.Request) {
	// Cap the whole request body; the pipeline re-checks the file size
	// itself, this guards against oversized multipart padding.
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes+1<<20)

	if err := r.ParseMultipartForm(s.uploadMaxBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, core.UnsupportedMediaf("file exceeds %d byte limit", s.uploadMaxBytes))
			return
		}
		writeError(w, r, core.Validationf("malformed multipart request: %v", err))
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, r, core.Validationf("missing receipt file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, core.Validationf("unreadable receipt file: %v", err))
		return
	}

	draft, err := s.receipts.Process(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, receiptUploadResponse{Success: true, TransactionData: draft})
}
