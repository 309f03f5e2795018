package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"supportline-backend/internal/auth"
	"supportline-backend/internal/models"
	"supportline-backend/internal/services"
	"supportline-backend/internal/store"
	"supportline-backend/pkg/httputil"
)

// maxKnowledgeFileBytes caps knowledge file uploads at 20 MiB.
const maxKnowledgeFileBytes = 20 << 20

type OrgHandler struct {
	orgService *services.OrgService
	knowledge  *services.KnowledgeFileService
	log        zerolog.Logger
}

func NewOrgHandler(orgSvc *services.OrgService, knowledge *services.KnowledgeFileService, log zerolog.Logger) *OrgHandler {
	return &OrgHandler{
		orgService: orgSvc,
		knowledge:  knowledge,
		log:        log.With().Str("handler", "organisations").Logger(),
	}
}

// HandleCreateOrganisation handles POST /v1/organisations. The calling user
// becomes the organisation's admin.
func (h *OrgHandler) HandleCreateOrganisation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.CreateOrganisationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err := h.orgService.CreateOrganisation(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrOrgValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("create organisation failed")
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create organisation")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, org)
}

// HandleGetOrganisation handles GET /v1/organisations/{orgID}.
func (h *OrgHandler) HandleGetOrganisation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganisation(r.Context(), orgID)
	if err != nil {
		h.respondStoreError(w, err, "fetch organisation")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, org)
}

// HandleUpdateSettings handles PATCH /v1/organisations/{orgID}/settings.
func (h *OrgHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}

	var req models.UpdateOrganisationSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err := h.orgService.UpdateSettings(r.Context(), orgID, req)
	if err != nil {
		h.respondStoreError(w, err, "update settings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, org)
}

// HandleListConversations handles GET /v1/organisations/{orgID}/conversations.
func (h *OrgHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	resp, err := h.orgService.ListConversations(r.Context(), orgID, limit, offset)
	if err != nil {
		h.respondStoreError(w, err, "list conversations")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListMessages handles
// GET /v1/organisations/{orgID}/conversations/{conversationID}/messages.
func (h *OrgHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}
	conversationID := chi.URLParam(r, "conversationID")

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	resp, err := h.orgService.ListMessages(r.Context(), orgID, conversationID, limit, offset)
	if err != nil {
		h.respondStoreError(w, err, "list messages")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUploadKnowledgeFile handles
// POST /v1/organisations/{orgID}/knowledge-files (multipart, field "file").
func (h *OrgHandler) HandleUploadKnowledgeFile(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxKnowledgeFileBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	resp, err := h.knowledge.Upload(r.Context(), orgID, header.Filename, content)
	if err != nil {
		if errors.Is(err, services.ErrEmptyFile) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondStoreError(w, err, "upload knowledge file")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleListKnowledgeFiles handles GET /v1/organisations/{orgID}/knowledge-files.
func (h *OrgHandler) HandleListKnowledgeFiles(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.authorisedOrgID(w, r)
	if !ok {
		return
	}

	files, err := h.knowledge.List(r.Context(), orgID)
	if err != nil {
		h.respondStoreError(w, err, "list knowledge files")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, files)
}

// authorisedOrgID resolves the {orgID} path parameter and verifies the caller
// is an admin of exactly that organisation. On failure it writes the error
// response and returns false.
func (h *OrgHandler) authorisedOrgID(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := chi.URLParam(r, "orgID")
	ctxOrgID, ok := auth.GetOrgIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	if orgID != ctxOrgID || !auth.GetIsAdminFromContext(r.Context()) {
		httputil.RespondError(w, http.StatusForbidden, "Not authorised for this organisation")
		return "", false
	}
	return orgID, true
}

func (h *OrgHandler) respondStoreError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, "Not found")
		return
	}
	h.log.Error().Err(err).Str("action", action).Msg("organisation request failed")
	httputil.RespondError(w, http.StatusInternalServerError, "Internal server error")
}
