package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shieldvault/vaultd/binder"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/organize"
)

type organizeHandlers struct {
	svc    *organize.Service
	logger *slog.Logger
}

func newOrganizeHandlers(svc *organize.Service, logger *slog.Logger) *organizeHandlers {
	return &organizeHandlers{svc: svc, logger: logger}
}

type collectionView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func toCollectionView(c *domain.Collection) collectionView {
	return collectionView{ID: c.ID, Name: c.Name, Description: c.Description, Icon: c.Icon, Color: c.Color}
}

type tagView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toTagView(t *domain.Tag) tagView { return tagView{ID: t.ID, Name: t.Name} }

func toTagViews(tags []*domain.Tag) []tagView {
	out := make([]tagView, len(tags))
	for i, t := range tags {
		out[i] = toTagView(t)
	}
	return out
}

type createCollectionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (h *organizeHandlers) createCollection(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req createCollectionRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := h.svc.CreateCollection(r.Context(), accountID, req.Name, req.Description, req.Icon, req.Color)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionView(c))
}

func (h *organizeHandlers) listCollections(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	collections, err := h.svc.ListCollections(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]collectionView, len(collections))
	for i, c := range collections {
		out[i] = toCollectionView(c)
	}
	writeJSON(w, http.StatusOK, out)
}

type updateCollectionRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description **string `json:"description,omitempty"`
	Icon        **string `json:"icon,omitempty"`
	Color       **string `json:"color,omitempty"`
}

func (h *organizeHandlers) updateCollection(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req updateCollectionRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := h.svc.UpdateCollection(r.Context(), accountID, chi.URLParam(r, "id"), req.Name, req.Description, req.Icon, req.Color)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionView(c))
}

func (h *organizeHandlers) deleteCollection(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.svc.DeleteCollection(r.Context(), accountID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveEntriesRequest struct {
	EntryIDs           []string `json:"entryIds"`
	TargetCollectionID *string  `json:"targetCollectionId"`
}

func (h *organizeHandlers) moveEntries(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req moveEntriesRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	moved, err := h.svc.MoveEntries(r.Context(), accountID, req.EntryIDs, req.TargetCollectionID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Moved int `json:"moved"`
	}{moved})
}

type createTagRequest struct {
	Name string `json:"name"`
}

func (h *organizeHandlers) createTag(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req createTagRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	t, err := h.svc.CreateTag(r.Context(), accountID, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTagView(t))
}

func (h *organizeHandlers) listTags(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	tags, err := h.svc.ListTags(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagViews(tags))
}

func (h *organizeHandlers) deleteTag(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.svc.DeleteTag(r.Context(), accountID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setEntryTagsRequest struct {
	Tags []string `json:"tags"`
}

func (h *organizeHandlers) setEntryTags(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req setEntryTagsRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	tags, err := h.svc.SetEntryTags(r.Context(), accountID, chi.URLParam(r, "id"), req.Tags)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagViews(tags))
}

func (h *organizeHandlers) entryTags(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	tags, err := h.svc.EntryTags(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagViews(tags))
}
