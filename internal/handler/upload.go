package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

// SendAttachment uploads the file in the "file" part to the active conversation.
func (h *Handler) SendAttachment(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	files, err := h.parseMultipartFiles(w, r, "file", 1)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	msg, err := engine.SendAttachment(r.Context(), files[0])
	h.writeSendResult(w, engine, msg, err)
}

// UploadDocuments uploads the "files" parts to a clinical request one at a time.
func (h *Handler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	requestId, err := parseIntParam(chi.URLParam(r, "id"), "clinical request id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	files, err := h.parseMultipartFiles(w, r, "files", maxBatchFiles)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	res, err := engine.UploadDocuments(r.Context(), domain.ClinicalRequestId(requestId), files)
	resp := api.BatchUploadResponse{Files: make([]api.BatchFileResult, len(res.Files))}
	for i, f := range res.Files {
		resp.Files[i] = api.BatchFileResult{FileName: f.FileName, Uploaded: f.Err == nil}
		if f.Err != nil {
			resp.Files[i].Error = f.Err.Error()
		}
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusMultiStatus
	}
	utils.WriteJSON(w, status, resp)
}

func (h *Handler) GetUploadProgress(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ProgressResponse{Files: engine.Progress()})
}

// GetPreview serves the local copy of a file that is still being uploaded.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	preview, ok := engine.Previews().Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "preview not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", preview.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(preview.Data)
}
