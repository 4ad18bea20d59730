package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shieldvault/vaultd/binder"
	"github.com/shieldvault/vaultd/internal/domain"
	"github.com/shieldvault/vaultd/internal/vaultsvc"
)

type vaultHandlers struct {
	svc    *vaultsvc.Service
	logger *slog.Logger
}

func newVaultHandlers(svc *vaultsvc.Service, logger *slog.Logger) *vaultHandlers {
	return &vaultHandlers{svc: svc, logger: logger}
}

// entryView is the JSON shape a vault entry is rendered as outside of
// get() — it never carries the secret.
type entryView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Username     *string `json:"username,omitempty"`
	Site         *string `json:"site,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	CollectionID *string `json:"collectionId,omitempty"`
	IsFavourite  bool    `json:"isFavourite"`
	IsPinned     bool    `json:"isPinned"`
	Strength     *int    `json:"strength,omitempty"`
}

func toEntryView(e *domain.VaultEntry) entryView {
	return entryView{
		ID: e.ID, Title: e.Title, Username: e.Username, Site: e.Site, Notes: e.Notes,
		CollectionID: e.CollectionID, IsFavourite: e.IsFavourite, IsPinned: e.IsPinned, Strength: e.Strength,
	}
}

func toEntryViews(entries []*domain.VaultEntry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = toEntryView(e)
	}
	return out
}

func principalOrUnauthenticated(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, r, logger, domain.ErrUnauthenticated)
		return "", false
	}
	return p.AccountID, true
}

func (h *vaultHandlers) list(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := vaultsvc.EntryListFilter{
		Query:         q.Get("q"),
		CollectionID:  q.Get("collectionId"),
		TagIDs:        q["tagId"],
		FavouriteOnly: q.Get("favourite") == "true",
		PinnedOnly:    q.Get("pinned") == "true",
	}
	if raw := q.Get("strengthMin"); raw != "" {
		if v, err := parseIntQuery(raw); err == nil {
			filter.StrengthMin = &v
		}
	}
	if raw := q.Get("strengthMax"); raw != "" {
		if v, err := parseIntQuery(raw); err == nil {
			filter.StrengthMax = &v
		}
	}

	entries, err := h.svc.List(r.Context(), accountID, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryViews(entries))
}

type revealedEntryView struct {
	entryView
	Secret string `json:"secret"`
}

func (h *vaultHandlers) get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	e, secret, err := h.svc.Get(r.Context(), accountID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, revealedEntryView{entryView: toEntryView(e), Secret: secret})
}

type createEntryRequest struct {
	Title        string  `json:"title"`
	Username     *string `json:"username,omitempty"`
	Site         *string `json:"site,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Secret       string  `json:"secret"`
	CollectionID *string `json:"collectionId,omitempty"`
}

func (h *vaultHandlers) create(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Title == "" {
		writeValidationErrors(w, []FieldError{{Field: "title", Message: "title is required"}})
		return
	}

	e, err := h.svc.Create(r.Context(), accountID, vaultsvc.CreateInput{
		Title: req.Title, Username: req.Username, Site: req.Site, Notes: req.Notes,
		Secret: req.Secret, CollectionID: req.CollectionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryView(e))
}

type updateEntryRequest struct {
	Title        *string  `json:"title,omitempty"`
	Username     **string `json:"username,omitempty"`
	Site         **string `json:"site,omitempty"`
	Notes        **string `json:"notes,omitempty"`
	Secret       *string  `json:"secret,omitempty"`
	CollectionID **string `json:"collectionId,omitempty"`
}

func (h *vaultHandlers) update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req updateEntryRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	e, err := h.svc.Update(r.Context(), accountID, id, vaultsvc.UpdatePatch{
		Title: req.Title, Username: req.Username, Site: req.Site, Notes: req.Notes,
		Secret: req.Secret, CollectionID: req.CollectionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryView(e))
}

type directSaveResponse struct {
	entryView
	Message string `json:"message"`
}

// directSave is the browser-extension entry point: it creates an entry
// exactly like create() and differs only in the response message, per
// §9 — it never searches for or updates an existing entry by title.
func (h *vaultHandlers) directSave(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Title == "" {
		writeValidationErrors(w, []FieldError{{Field: "title", Message: "title is required"}})
		return
	}

	e, err := h.svc.Create(r.Context(), accountID, vaultsvc.CreateInput{
		Title: req.Title, Username: req.Username, Site: req.Site, Notes: req.Notes,
		Secret: req.Secret, CollectionID: req.CollectionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, directSaveResponse{entryView: toEntryView(e), Message: "saved directly from browser extension"})
}

func (h *vaultHandlers) delete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), accountID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *vaultHandlers) bulkDelete(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	count, err := h.svc.BulkDelete(r.Context(), accountID, req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Deleted int `json:"deleted"`
	}{count})
}

func (h *vaultHandlers) toggleFavourite(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	e, err := h.svc.ToggleFavourite(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryView(e))
}

func (h *vaultHandlers) togglePinned(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	e, err := h.svc.TogglePinned(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryView(e))
}

func (h *vaultHandlers) health(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	report, err := h.svc.Health(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *vaultHandlers) export(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	entries, err := h.svc.Export(r.Context(), accountID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type importRequest struct {
	Entries []vaultsvc.ImportEntry `json:"entries"`
}

func (h *vaultHandlers) importEntries(w http.ResponseWriter, r *http.Request) {
	accountID, ok := principalOrUnauthenticated(w, r, h.logger)
	if !ok {
		return
	}
	var req importRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	count, err := h.svc.Import(r.Context(), accountID, req.Entries)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Imported int `json:"imported"`
	}{count})
}

// parsePagination is a small shared helper the organize/audit handlers
// also use for limit/offset query parameters.
func parsePagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func parseIntQuery(v string) (int, error) {
	return strconv.Atoi(v)
}
