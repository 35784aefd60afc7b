package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/export"
	"github.com/JonMunkholm/form1099/internal/logging"
	"github.com/JonMunkholm/form1099/internal/web/views"
)

// createFormRequest is the body of POST /api/forms.
type createFormRequest struct {
	FormType string         `json:"formType"`
	TaxYear  json.Number    `json:"taxYear"`
	Data     map[string]any `json:"data"`
}

// updateFormRequest is the body of PUT /api/forms/{id}.
type updateFormRequest struct {
	Data map[string]any `json:"data"`
}

// previewRequest is the body of POST /api/preview.
type previewRequest struct {
	FormType string         `json:"formType"`
	Data     map[string]any `json:"data"`
}

// previewResponse lists the entries a form would produce.
type previewResponse struct {
	FormType string              `json:"formType"`
	Entries  []core.MappingEntry `json:"entries"`
}

// formsResponse wraps a form listing.
type formsResponse struct {
	Forms []core.StoredForm `json:"forms"`
	Count int               `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"formTypes":     core.FormCount(),
		"exportsActive": s.exports.Active(),
	})
}

// handleDashboard renders the summary page for ?taxYear=.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := core.UserIDFromContext(ctx)

	taxYear, err := parseTaxYear(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.service.Summary(ctx, userID, taxYear)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	forms, err := s.service.ListForms(ctx, userID, taxYear)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := views.DashboardData{
		Summary:   summary,
		Forms:     forms,
		FormTypes: s.service.FormTypes(),
		Filtered:  taxYear != nil,
	}
	if err := views.Dashboard(page).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render dashboard", "error", err)
	}
}

// handleListFormTypes returns every form definition with its fields and rules.
func (s *Server) handleListFormTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.FormTypes())
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	taxYear, err := parseTaxYear(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	forms, err := s.service.ListForms(r.Context(), core.UserIDFromContext(r.Context()), taxYear)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if forms == nil {
		forms = []core.StoredForm{}
	}
	writeJSON(w, http.StatusOK, formsResponse{Forms: forms, Count: len(forms)})
}

// handleCreateForm validates, maps and stores one submitted form.
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var req createFormRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	taxYear := 0
	if req.TaxYear != "" {
		n, err := strconv.Atoi(req.TaxYear.String())
		if err != nil {
			s.respondError(w, r, invalidRequest("taxYear must be a whole number"))
			return
		}
		taxYear = n
	}

	form, err := s.service.CreateForm(r.Context(), core.UserIDFromContext(r.Context()), req.FormType, taxYear, req.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/forms/"+form.ID)
	writeJSON(w, http.StatusCreated, form)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.service.GetForm(r.Context(), core.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// handleUpdateForm replaces a form's data. Type and tax year stay as stored.
func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	var req updateFormRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	form, err := s.service.UpdateForm(r.Context(), core.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteForm(r.Context(), core.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview maps a form without storing it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	entries, err := s.service.PreviewMapping(req.FormType, req.Data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.MappingEntry{}
	}

	ft, _ := core.ParseFormType(req.FormType)
	writeJSON(w, http.StatusOK, previewResponse{FormType: string(ft), Entries: entries})
}

// handleExport streams the summary as JSON, CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	taxYear, err := parseTaxYear(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, invalidRequest("%v", err))
		return
	}

	summary, err := s.service.Summary(r.Context(), core.UserIDFromContext(r.Context()), taxYear)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Serialize fully first so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := s.exports.Run(r.Context(), &buf, format, summary); err != nil {
		if errors.Is(err, export.ErrTooManyExports) {
			w.Header().Set("Retry-After", "5")
		}
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(taxYear, format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// decodeJSON reads a size-limited JSON body. Numbers stay json.Number so
// amounts reach validation without float rounding.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invalidRequest("body exceeds %d bytes", tooLarge.Limit)
		}
		return invalidRequest("malformed JSON: %v", err)
	}
	return nil
}

// parseTaxYear reads the optional ?taxYear= filter.
func parseTaxYear(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("taxYear")
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalidRequest("taxYear must be a whole number")
	}
	if fe := core.ValidateTaxYear(year); fe != nil {
		return nil, &core.ValidationError{Errors: []core.FieldError{*fe}}
	}
	return &year, nil
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
