package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// SlotsHandler exposes slot editing over HTTP
type SlotsHandler struct {
	service simpleslots.Service
	auth    *jwtauth.JWTAuth
	tokens  *EditTokens
	logger  *slog.Logger
}

// NewSlotsHandler creates a new slots handler
func NewSlotsHandler(service simpleslots.Service, auth *jwtauth.JWTAuth, tokens *EditTokens) *SlotsHandler {
	return &SlotsHandler{
		service: service,
		auth:    auth,
		tokens:  tokens,
		logger:  slog.Default(),
	}
}

// Routes returns the routes for slot editing. Every route requires a JWT.
func (h *SlotsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(h.logger))
	r.Use(RecoveryMiddleware(h.logger))
	r.Use(RequestSizeLimitMiddleware(maxRequestBytes))
	r.Use(jwtauth.Verifier(h.auth))
	r.Use(RequireActor)

	r.With(middleware.NoCache).Get("/token", h.GetToken)
	r.Post("/editslot", h.EditSlot)

	r.Get("/pages/{title}/slots", h.ListSlots)
	r.Get("/pages/{title}/semantic", h.GetSemanticData)

	return r
}

// ErrorBody is the error envelope of every failed request
type ErrorBody struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo carries a machine code and a human readable message
type ErrorInfo struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// EditSlotParams are the parameters of an editslot request
type EditSlotParams struct {
	Title     string `json:"title"`
	PageID    int64  `json:"pageid"`
	Text      string `json:"text"`
	Slot      string `json:"slot"`
	Append    bool   `json:"append"`
	Summary   string `json:"summary"`
	Watchlist string `json:"watchlist"`
	Token     string `json:"token"`
}

// EditSlotResponse is the body of a successful editslot request
type EditSlotResponse struct {
	EditSlot EditSlotResult `json:"editslot"`
}

// EditSlotResult describes the outcome of an edit
type EditSlotResult struct {
	Result   string `json:"result"`
	PageID   int64  `json:"pageid,omitempty"`
	Title    string `json:"title,omitempty"`
	NewRevID int64  `json:"newrevid,omitempty"`
	NoChange bool   `json:"nochange,omitempty"`
}

// TokenResponse carries the edit token of the caller
type TokenResponse struct {
	Token string `json:"csrftoken"`
}

// SlotResponse describes one slot of the current revision
type SlotResponse struct {
	Role    string                      `json:"role"`
	Model   string                      `json:"model"`
	Size    int                         `json:"size"`
	SHA1    string                      `json:"sha1"`
	Content string                      `json:"content"`
	Layout  *simpleslots.SlotRoleLayout `json:"layout,omitempty"`
}

// slotLayouts is implemented by registries that know slot display layouts
type slotLayouts interface {
	Layout(role string) simpleslots.SlotRoleLayout
}

// PageSlotsResponse lists the slots of a page
type PageSlotsResponse struct {
	PageID     int64          `json:"pageid"`
	Title      string         `json:"title"`
	RevisionID int64          `json:"revid"`
	Slots      []SlotResponse `json:"slots"`
}

// GetToken returns the edit token of the authenticated actor
func (h *SlotsHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	render.JSON(w, r, TokenResponse{Token: h.tokens.Token(actor)})
}

// EditSlot edits one slot of a page
func (h *SlotsHandler) EditSlot(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	params, failure := parseEditSlotParams(r)
	if failure != nil {
		writeError(w, r, http.StatusBadRequest, failure.Code, failure.Info)
		return
	}

	if params.Title != "" && params.PageID != 0 {
		writeError(w, r, http.StatusBadRequest, "invalidparammix", "The parameters title and pageid can not be used together.")
		return
	}
	if params.Token == "" {
		writeError(w, r, http.StatusBadRequest, "missingparam", `The "token" parameter must be set.`)
		return
	}
	if !h.tokens.Verify(actor, params.Token) {
		writeError(w, r, http.StatusForbidden, "badtoken", "Invalid CSRF token.")
		return
	}

	result, err := h.service.EditSlot(r.Context(), simpleslots.EditSlotRequest{
		Actor:     actor,
		Page:      simpleslots.PageRef{Title: params.Title, ID: params.PageID},
		Text:      params.Text,
		Slot:      params.Slot,
		Append:    params.Append,
		Summary:   params.Summary,
		Watchlist: params.Watchlist,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, EditSlotResponse{EditSlot: EditSlotResult{
		Result:   "Success",
		PageID:   result.Page.ID,
		Title:    result.Page.Title,
		NewRevID: result.Revision.ID,
		NoChange: !result.Changed,
	}})
}

// ListSlots lists the slots of the current revision of a page
func (h *SlotsHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalidtitle", "Bad title.")
		return
	}

	revision, err := h.service.GetCurrentRevision(r.Context(), title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	page, err := h.service.GetPage(r.Context(), simpleslots.PageRef{Title: title})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	layouts, _ := h.service.SlotRoles().(slotLayouts)

	resp := PageSlotsResponse{
		PageID:     page.ID,
		Title:      page.Title,
		RevisionID: revision.ID,
		Slots:      make([]SlotResponse, 0, len(revision.Slots)),
	}
	for _, role := range revision.Roles() {
		slot := revision.Slot(role)
		item := SlotResponse{
			Role:    role,
			Model:   slot.Content.Model,
			Size:    len(slot.Content.Data),
			SHA1:    slot.Hash,
			Content: slot.Content.Data,
		}
		if layouts != nil {
			layout := layouts.Layout(role)
			item.Layout = &layout
		}
		resp.Slots = append(resp.Slots, item)
	}

	render.JSON(w, r, resp)
}

// GetSemanticData returns the aggregate semantic data of a page
func (h *SlotsHandler) GetSemanticData(w http.ResponseWriter, r *http.Request) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalidtitle", "Bad title.")
		return
	}

	data, err := h.service.GetSemanticData(r.Context(), title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, data)
}

// parseEditSlotParams reads parameters from a JSON body or from form values
func parseEditSlotParams(r *http.Request) (EditSlotParams, *ErrorInfo) {
	var params EditSlotParams

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			return params, &ErrorInfo{Code: "badjson", Info: fmt.Sprintf("Invalid JSON body: %v", err)}
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return params, &ErrorInfo{Code: "badrequest", Info: fmt.Sprintf("Invalid form body: %v", err)}
	}
	params.Title = r.Form.Get("title")
	params.Text = r.Form.Get("text")
	params.Slot = r.Form.Get("slot")
	params.Summary = r.Form.Get("summary")
	params.Watchlist = r.Form.Get("watchlist")
	params.Token = r.Form.Get("token")

	// A boolean parameter is true when present, unless explicitly false.
	if _, ok := r.Form["append"]; ok {
		v := r.Form.Get("append")
		params.Append = v != "false" && v != "0"
	}

	if raw := r.Form.Get("pageid"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, &ErrorInfo{Code: "badinteger", Info: fmt.Sprintf("Invalid value %q for integer parameter \"pageid\".", raw)}
		}
		params.PageID = id
	}

	return params, nil
}

// writeServiceError maps service errors to the error envelope
func (h *SlotsHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if editErr, ok := simpleslots.AsEditError(err); ok {
		writeError(w, r, http.StatusBadRequest, editErr.Code, editErr.Message)
		return
	}

	switch {
	case errors.Is(err, simpleslots.ErrInvalidContent):
		writeError(w, r, http.StatusBadRequest, "invalidcontent", err.Error())
	case errors.Is(err, simpleslots.ErrPageNotFound):
		writeError(w, r, http.StatusNotFound, "missingtitle", "The page you specified doesn't exist.")
	case errors.Is(err, simpleslots.ErrUnknownSlot):
		writeError(w, r, http.StatusNotFound, simpleslots.CodeUnknownSlot, err.Error())
	case errors.Is(err, simpleslots.ErrSemanticDataNotFound):
		writeError(w, r, http.StatusNotFound, "nosemanticdata", "No semantic data is stored for the page.")
	default:
		h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal_api_error", "An internal error occurred.")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, info string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: ErrorInfo{Code: code, Info: info}})
}
