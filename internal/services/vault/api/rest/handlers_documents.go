package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/internal/services/vault/document"
)

func (h *Handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	doc, err := h.svc.CreateDocument(r.Context(), caller, mux.Vars(r)["teamID"], payload.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	summaries, err := h.svc.ListDocuments(r.Context(), caller, mux.Vars(r)["teamID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := make([]documentResponse, 0, len(summaries))
	for _, entry := range summaries {
		response = append(response, toDocumentSummaryResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string][]documentResponse{"documents": response})
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	detail, err := h.svc.GetDocument(r.Context(), caller, mux.Vars(r)["documentID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := toDocumentResponse(detail.Document)
	response.Creator = toUserResponsePtr(detail.Creator)
	response.CallerRole = string(detail.CallerRole)
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleRenameDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.RenameDocument(r.Context(), caller, mux.Vars(r)["documentID"], payload.Name); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), caller, mux.Vars(r)["documentID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	versions, err := h.svc.ListVersions(r.Context(), caller, mux.Vars(r)["documentID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := make([]versionResponse, 0, len(versions))
	for _, entry := range versions {
		response = append(response, toVersionResponse(entry.Version, entry.Uploader))
	}
	writeJSON(w, http.StatusOK, map[string][]versionResponse{"versions": response})
}

func (h *Handler) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		StorageObjectID string `json:"storage_object_id"`
		FileName        string `json:"file_name"`
		FileType        string `json:"file_type"`
		FileSize        int64  `json:"file_size"`
		Comment         string `json:"comment"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.svc.CreateVersion(r.Context(), caller, document.NewVersionInput{
		DocumentID:      mux.Vars(r)["documentID"],
		StorageObjectID: payload.StorageObjectID,
		FileName:        payload.FileName,
		FileType:        payload.FileType,
		FileSize:        payload.FileSize,
		Comment:         payload.Comment,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionResponse(created, nil))
}

func (h *Handler) handleRequestUpload(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	target, err := h.svc.RequestUploadTarget(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"object_id":  target.ObjectID,
		"upload_url": target.URL,
	})
}

func (h *Handler) handleResolveDownload(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	url, err := h.svc.ResolveDownloadURL(r.Context(), caller, mux.Vars(r)["objectID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": url})
}
