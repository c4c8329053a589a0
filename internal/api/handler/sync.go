package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/keyring"
	"github.com/fuelsync/fuelsync/internal/secure"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/syncproto"
)

// SyncHandler handles the station-facing sync endpoints. Stations do
// not carry JWTs; possession of the rotating key (or of the shared
// passphrase for first issuance) is what authenticates them.
type SyncHandler struct {
	sync *syncproto.Service
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(sync *syncproto.Service) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// IssueKey handles POST /v1/sync/key - first issuance and rotation.
func (h *SyncHandler) IssueKey(w http.ResponseWriter, r *http.Request) {
	var req models.DataEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	out, err := h.sync.IssueKey(r.Context(), req.Data, clientIP(r))
	if err != nil {
		h.writeSyncError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.DataEnvelope{Data: out})
}

// FetchOptions handles GET /v1/sync/{stationId}/options.
func (h *SyncHandler) FetchOptions(w http.ResponseWriter, r *http.Request) {
	env, err := h.sync.FetchOptions(r.Context(), chi.URLParam(r, "stationId"), clientIP(r))
	if err != nil {
		h.writeSyncError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, env)
}

// FetchFuels handles GET /v1/sync/{stationId}/fuels.
func (h *SyncHandler) FetchFuels(w http.ResponseWriter, r *http.Request) {
	env, err := h.sync.FetchFuels(r.Context(), chi.URLParam(r, "stationId"), clientIP(r))
	if err != nil {
		h.writeSyncError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, env)
}

// FetchLicense handles GET /v1/sync/{stationId}/license.
func (h *SyncHandler) FetchLicense(w http.ResponseWriter, r *http.Request) {
	env, err := h.sync.FetchLicense(r.Context(), chi.URLParam(r, "stationId"), clientIP(r))
	if err != nil {
		h.writeSyncError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, env)
}

// writeSyncError maps protocol errors onto the status codes station
// firmware distinguishes: 400 for undecodable input, 404 for unknown
// stations, 406 for every rejected precondition.
func (h *SyncHandler) writeSyncError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, secure.ErrMalformedInput), errors.Is(err, secure.ErrDecryptionFailed):
		response.BadRequest(w, r, "undecodable payload", nil)
	case errors.Is(err, station.ErrStationNotFound), errors.Is(err, keyring.ErrStationNotFound):
		response.NotFound(w, r, "station not found")
	case errors.Is(err, keyring.ErrNotAcceptable):
		response.NotAcceptable(w, r, err.Error())
	default:
		response.InternalError(w, r, "sync failed")
	}
}

// clientIP returns the request source address without the port. RealIP
// middleware has already unwrapped any forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
