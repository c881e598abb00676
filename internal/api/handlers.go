package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/grouping"
	"github.com/Veraticus/docmatch/internal/model"
)

// MatchRequest asks for the report of one document pair. A supplied
// certainty replaces the scorer.
type MatchRequest struct {
	Certainty *float64         `json:"certainty,omitempty"`
	Documents []model.Document `json:"documents"`
}

// CandidateRequest asks to match a document against candidates.
type CandidateRequest struct {
	Document   *model.Document  `json:"document"`
	Candidates []model.Document `json:"candidate-documents"`
}

// CandidateResponse lists candidate reports, best first.
type CandidateResponse struct {
	Reports []model.MatchReport `json:"reports"`
}

// GroupsRequest asks to partition documents into three-way groups.
type GroupsRequest struct {
	Documents []model.Document `json:"documents"`
}

// GroupsResponse holds the three-way groups.
type GroupsResponse struct {
	Groups []grouping.ThreeWayGroup `json:"groups"`
}

// MergeCheckRequest names the three documents of a merge check.
type MergeCheckRequest struct {
	Invoice         *model.Document `json:"invoice"`
	DeliveryReceipt *model.Document `json:"delivery-receipt"`
	PurchaseOrder   *model.Document `json:"purchase-order"`
}

func hasJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// decode reads the JSON body into v, writing the error reply on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large", err)
			return false
		}
		slog.Warn("Failed to decode request", "trace_id", traceID(r), "error", err)
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON request body", err)
		return false
	}
	return true
}

func validateAll(docs ...model.Document) error {
	errs := make([]error, 0, len(docs))
	for _, d := range docs {
		errs = append(errs, d.Validate())
	}
	return errors.Join(errs...)
}

// Health reports that the process is up.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ready to match\r\n"))
}

// Ready reports whether the scorer is able to take requests.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_READY"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "READY"})
}

// MatchPair handles POST /v1/match.
func (h *Handler) MatchPair(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Documents) != model.DocumentCount {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed",
			fmt.Errorf("documents: expected %d, got %d", model.DocumentCount, len(req.Documents)))
		return
	}
	if c := req.Certainty; c != nil && (*c < 0 || *c > 1) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed",
			fmt.Errorf("certainty %v outside [0,1]", *c))
		return
	}
	a, b := req.Documents[0], req.Documents[1]
	if err := validateAll(a, b); err != nil {
		writeDocumentError(w, err)
		return
	}

	if req.Certainty != nil {
		writeJSON(w, http.StatusOK, h.matcher.Compare(a, b, req.Certainty))
		return
	}

	rep, err := h.matcher.Match(r.Context(), a, b)
	if err != nil {
		h.matchingFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// MatchCandidates handles POST /v1/match-candidates.
func (h *Handler) MatchCandidates(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Document == nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed",
			errors.New("document: field required"))
		return
	}
	if len(req.Candidates) > MaxCandidates {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
			fmt.Sprintf("Payload too large. Maximum %d candidate documents allowed", MaxCandidates), nil)
		return
	}

	candidates := req.Candidates
	if len(candidates) > CandidateCap {
		slog.Warn("Truncating candidate list",
			"trace_id", traceID(r),
			"candidates", len(candidates),
			"cap", CandidateCap)
		candidates = candidates[:CandidateCap]
	}
	if err := validateAll(append([]model.Document{*req.Document}, candidates...)...); err != nil {
		writeDocumentError(w, err)
		return
	}

	slog.Info("Matching candidates",
		"trace_id", traceID(r),
		"document", req.Document.ID,
		"site", req.Document.Site,
		"candidates", len(candidates))

	reports, err := h.matcher.MatchCandidates(r.Context(), *req.Document, candidates, nil)
	if err != nil {
		h.matchingFailed(w, r, err)
		return
	}
	if reports == nil {
		reports = []model.MatchReport{}
	}
	writeJSON(w, http.StatusOK, CandidateResponse{Reports: reports})
}

// Groups handles POST /v1/groups.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	var req GroupsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validateAll(req.Documents...); err != nil {
		writeDocumentError(w, err)
		return
	}

	groups := grouping.Group(req.Documents)
	if groups == nil {
		groups = []grouping.ThreeWayGroup{}
	}
	writeJSON(w, http.StatusOK, GroupsResponse{Groups: groups})
}

// MergeCheck handles POST /v1/merge-check.
func (h *Handler) MergeCheck(w http.ResponseWriter, r *http.Request) {
	var req MergeCheckRequest
	if !decode(w, r, &req) {
		return
	}

	roles := []struct {
		doc  *model.Document
		name string
		kind model.Kind
	}{
		{req.Invoice, "invoice", model.KindInvoice},
		{req.DeliveryReceipt, "delivery-receipt", model.KindDeliveryReceipt},
		{req.PurchaseOrder, "purchase-order", model.KindPurchaseOrder},
	}
	for _, role := range roles {
		if role.doc == nil {
			writeError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed",
				fmt.Errorf("%s: field required", role.name))
			return
		}
		if err := role.doc.Validate(); err != nil {
			writeDocumentError(w, err)
			return
		}
		if role.doc.Kind != role.kind {
			writeDocumentError(w, fmt.Errorf("%w: %s has kind %q", common.ErrUnsupportedKind, role.name, role.doc.Kind))
			return
		}
	}

	writeJSON(w, http.StatusOK, grouping.MergeCheck(*req.Invoice, *req.DeliveryReceipt, *req.PurchaseOrder))
}

func (h *Handler) matchingFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrInvalidDocument) {
		writeDocumentError(w, err)
		return
	}
	common.LogError(err, "Matching failed", common.Fields{"trace_id": traceID(r)})
	writeError(w, http.StatusInternalServerError, CodeMatchingServiceError,
		"Matching service failed to process document", err)
}
