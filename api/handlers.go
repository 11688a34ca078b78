// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/nftvoter/address"
	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/internal/version"
	"github.com/blinklabs-io/nftvoter/updater"
	"github.com/blinklabs-io/nftvoter/voter"
	"github.com/go-chi/chi/v5"
)

const (
	DefaultAttestationLimit = 100
	MaxAttestationLimit     = 1000

	// maxBodySize bounds request bodies. Raw accounts are small
	maxBodySize = 1 << 20
)

var ErrInvalidLimit = errors.New("invalid limit parameter")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, kind string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		Kind:       kind,
	})
}

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrRegistrarNotFound),
		errors.Is(err, models.ErrVoterWeightRecordNotFound),
		errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrVoterWeightRecordExists):
		return http.StatusConflict
	case errors.Is(err, voter.ErrTokenAccountDecode),
		errors.Is(err, voter.ErrProvenanceDecode),
		errors.Is(err, voter.ErrUnknownVoterWeightAction),
		errors.Is(err, address.ErrInvalidAddress):
		return http.StatusBadRequest
	case voter.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes the response for an error returned by the service.
// Internal errors are logged and their text is not exposed
func (s *Server) writeServiceError(
	w http.ResponseWriter,
	r *http.Request,
	msg string,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			msg,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
		writeError(w, status, msg, "")
		return
	}
	kind := voter.ErrorKind(err)
	if kind == voter.KindInternal {
		kind = ""
	}
	writeError(w, status, err.Error(), kind)
}

// decodeBody decodes a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			fmt.Sprintf("invalid request body: %s", err),
			"",
		)
		return false
	}
	return true
}

// addressParam parses the {address} URL parameter
func addressParam(w http.ResponseWriter, r *http.Request) (address.Address, bool) {
	addr, err := address.Parse(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return addr, false
	}
	return addr, true
}

// parseLimit parses the limit query parameter, applying the default and
// clamping to the maximum
func parseLimit(r *http.Request) (int, error) {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return DefaultAttestationLimit, nil
	}
	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit < 1 {
		return 0, ErrInvalidLimit
	}
	return min(limit, MaxAttestationLimit), nil
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
		Version:   version.GetVersionString(),
	})
}

// handleGetRegistrar handles GET /api/v0/registrars/{address}
func (s *Server) handleGetRegistrar(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	registrar, err := s.service.GetRegistrar(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, "failed to retrieve registrar", err)
		return
	}
	count, err := s.service.CountVoterWeightRecords(r.Context(), registrar)
	if err != nil {
		s.writeServiceError(w, r, "failed to count voter weight records", err)
		return
	}
	writeJSON(w, http.StatusOK, RegistrarResponse{
		Address:            registrar.Address(),
		VoterWeightRecords: count,
		Registrar:          *registrar,
	})
}

// handleCreateVoterWeightRecord handles POST /api/v0/voter-weight-records
func (s *Server) handleCreateVoterWeightRecord(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateVoterWeightRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := s.service.CreateVoterWeightRecord(
		r.Context(),
		req.Realm,
		req.GoverningTokenMint,
		req.GoverningTokenOwner,
	)
	if err != nil {
		s.writeServiceError(w, r, "failed to create voter weight record", err)
		return
	}
	w.Header().Set(
		"Location",
		"/api/v0/voter-weight-records/"+record.Address().String(),
	)
	writeJSON(w, http.StatusCreated, VoterWeightRecordResponse{
		Address:           record.Address(),
		State:             voter.RecordStateStale.String(),
		VoterWeightRecord: *record,
	})
}

// handleGetVoterWeightRecord handles
// GET /api/v0/voter-weight-records/{address}
func (s *Server) handleGetVoterWeightRecord(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	record, state, err := s.service.GetVoterWeightRecord(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, "failed to retrieve voter weight record", err)
		return
	}
	writeJSON(w, http.StatusOK, VoterWeightRecordResponse{
		Address:           addr,
		State:             state.String(),
		VoterWeightRecord: *record,
	})
}

// handleUpdateVoterWeightRecord handles
// POST /api/v0/voter-weight-records/{address}/update
func (s *Server) handleUpdateVoterWeightRecord(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	var req UpdateVoterWeightRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action, err := voter.ParseVoterWeightAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), voter.KindUnknownAction)
		return
	}
	record, err := s.service.UpdateVoterWeightRecord(
		r.Context(),
		updater.UpdateRequest{
			Registrar:         req.Registrar,
			VoterWeightRecord: addr,
			NftToken:          req.NftToken,
			NftMetadata:       req.NftMetadata,
			Action:            action,
		},
	)
	if err != nil {
		s.writeServiceError(w, r, "failed to update voter weight record", err)
		return
	}
	writeJSON(w, http.StatusOK, VoterWeightRecordResponse{
		Address:           addr,
		State:             voter.RecordStateFresh.String(),
		VoterWeightRecord: *record,
	})
}

// handleGetAttestations handles
// GET /api/v0/voter-weight-records/{address}/attestations
func (s *Server) handleGetAttestations(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	atts, err := s.service.GetAttestations(r.Context(), addr, limit)
	if err != nil {
		s.writeServiceError(w, r, "failed to retrieve attestations", err)
		return
	}
	resp := make([]AttestationResponse, 0, len(atts))
	for _, att := range atts {
		resp = append(resp, attestationResponse(att))
	}
	writeJSON(w, http.StatusOK, resp)
}

func attestationResponse(att models.Attestation) AttestationResponse {
	ret := AttestationResponse{
		Hash:      hex.EncodeToString(att.Hash),
		Slot:      att.Slot,
		Action:    voter.VoterWeightAction(att.Action).String(),
		Weight:    att.Weight,
		Result:    att.Result,
		Kind:      att.Kind,
		Error:     att.Error,
		CreatedAt: att.CreatedAt.Unix(),
	}
	if tmp, err := address.FromBytes(att.NftToken); err == nil {
		ret.NftToken = tmp.String()
	}
	if tmp, err := address.FromBytes(att.NftMetadata); err == nil {
		ret.NftMetadata = tmp.String()
	}
	return ret
}

// handlePutAccount handles PUT /api/v0/accounts/{address}
func (s *Server) handlePutAccount(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	var req PutAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "account data is required", "")
		return
	}
	if err := s.service.PutAccount(r.Context(), addr, req.Data); err != nil {
		s.writeServiceError(w, r, "failed to store account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
