package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
)

// receiptField is the multipart field holding the upload.
const receiptField = "receipt"

// multipartOverhead covers boundaries and headers around the file part.
const multipartOverhead = 64 << 10

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxReceiptBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxReceiptBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			ErrorResponse(err).Write(w)
			return
		}
		s.writeDecodeError(w, r, applog.OpExtract, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(receiptField)
	if err != nil {
		s.writeError(w, r, applog.OpExtract, core.Invalid(receiptField, err))
		return
	}
	defer file.Close()

	res, err := s.deps.Receipts.Process(r.Context(), header.Filename, file)
	if err != nil {
		s.writeError(w, r, applog.OpExtract, err)
		return
	}

	b := NewResponse().
		Status(http.StatusCreated).
		Data(toReceiptJSON(res.URL, res.Data, res.Draft))
	if res.Data.Amount.Cents == 0 {
		b.Notify(NotificationWarning, "Could not read an amount, please fill it in", 5000)
	} else {
		b.Success("Receipt read, review the expense before saving")
	}
	b.Write(w)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	path, err := s.deps.ReceiptStore.Path(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	http.ServeFile(w, r, path)
}
