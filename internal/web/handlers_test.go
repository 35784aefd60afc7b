package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/form1099/internal/config"
	"github.com/JonMunkholm/form1099/internal/core"
	_ "github.com/JonMunkholm/form1099/internal/core/forms"
	"github.com/JonMunkholm/form1099/internal/store/memory"
	"github.com/JonMunkholm/form1099/internal/web/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 16},
		Rate:     config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{EnableCSP: true},
		Auth:     config.AuthConfig{DefaultUser: "local"},
		Cache:    config.CacheConfig{SummaryTTL: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	svc := core.NewService(memory.New(), core.ServiceOptions{SummaryTTL: cfg.Cache.SummaryTTL})
	return NewServer(cfg, svc)
}

func party(ssn bool) map[string]any {
	p := map[string]any{
		"name":    "Acme Corp",
		"address": "1 Main St",
		"city":    "Springfield",
		"state":   "IL",
		"zipCode": "62701",
	}
	if ssn {
		p["ssn"] = "123-45-6789"
	}
	return p
}

func formBody(formType string, year int, boxes map[string]any) map[string]any {
	data := map[string]any{"payer": party(false), "recipient": party(true)}
	for k, v := range boxes {
		data[k] = v
	}
	return map[string]any{"formType": formType, "taxYear": year, "data": data}
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(8), body["formTypes"])
	assert.Equal(t, float64(0), body["exportsActive"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestListFormTypes(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/form-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	defs := decodeBody[[]struct {
		Info   core.FormInfo `json:"info"`
		Fields []struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Required bool   `json:"required"`
		} `json:"fields"`
		Rules []core.MappingRule `json:"rules"`
	}](t, rec)

	require.Len(t, defs, 8)
	assert.Equal(t, core.FormNEC, defs[0].Info.Type)

	for _, d := range defs {
		if d.Info.Type != core.FormINT {
			continue
		}
		var found bool
		for _, f := range d.Fields {
			if f.Name == "interestIncome" {
				found = true
				assert.Equal(t, "currency", f.Type)
				assert.True(t, f.Required)
			}
		}
		assert.True(t, found, "INT lists interestIncome")
		assert.Equal(t, "2a", d.Rules[0].Line.Line)
	}
}

func TestCreateForm_MapsAndStores(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/forms", formBody("1099-DIV", 2024, map[string]any{
		"ordinaryDividends":  "2,500.75",
		"qualifiedDividends": 2000.00,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":2500.75`)

	form := decodeBody[core.StoredForm](t, rec)
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, "/api/forms/"+form.ID, rec.Header().Get("Location"))
	assert.Equal(t, core.FormDIV, form.FormType)
	assert.Equal(t, 2024, form.TaxYear)
	assert.Equal(t, "local", form.UserID)

	require.Len(t, form.Mappings, 2)
	assert.Equal(t, "3a", form.Mappings[0].Line)
	assert.True(t, decimal.RequireFromString("2500.75").Equal(form.Mappings[0].Amount))
	assert.Equal(t, "3b", form.Mappings[1].Line)
	assert.True(t, decimal.RequireFromString("2000").Equal(form.Mappings[1].Amount))

	got := do(t, s, http.MethodGet, "/api/forms/"+form.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, form.ID, decodeBody[core.StoredForm](t, got).ID)
}

func TestCreateForm_ValidationErrors(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/forms", formBody("INT", 2024, map[string]any{
		"foreignTaxPaid": "12.00",
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", body.Code)
	require.NotEmpty(t, body.Fields)
	var names []string
	for _, f := range body.Fields {
		names = append(names, f.Field)
	}
	assert.Contains(t, names, "interestIncome")

	list := decodeBody[formsResponse](t, do(t, s, http.MethodGet, "/api/forms", nil))
	assert.Zero(t, list.Count, "rejected form is not stored")
}

func TestCreateForm_BadRequests(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"formType":`, "VAL006"},
		{"fractional year", `{"formType":"NEC","taxYear":2024.5,"data":{}}`, "VAL006"},
		{"unknown form type", `{"formType":"W2","taxYear":2024,"data":{}}`, "FORM001"},
		{"year out of range", `{"formType":"NEC","taxYear":1900,"data":{}}`, "VAL001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCreateForm_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 64
	s := newTestServer(t, cfg)

	rec := do(t, s, http.MethodPost, "/api/forms", formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": 1}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL006", decodeBody[ErrorResponse](t, rec).Code)
}

func TestUpdateAndDeleteForm(t *testing.T) {
	s := newTestServer(t, testConfig())

	created := decodeBody[core.StoredForm](t, do(t, s, http.MethodPost, "/api/forms",
		formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "10000"})))

	data := formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "12000.50"})["data"]
	rec := do(t, s, http.MethodPut, "/api/forms/"+created.ID, map[string]any{"data": data})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody[core.StoredForm](t, rec)
	assert.Equal(t, core.FormNEC, updated.FormType)
	require.Len(t, updated.Mappings, 1)
	assert.True(t, decimal.RequireFromString("12000.50").Equal(updated.Mappings[0].Amount))

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/forms/"+created.ID, nil).Code)

	missing := do(t, s, http.MethodGet, "/api/forms/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "FORM002", decodeBody[ErrorResponse](t, missing).Code)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/forms/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/api/forms/nope", map[string]any{"data": data}).Code)
}

func TestListForms_FilterByYear(t *testing.T) {
	s := newTestServer(t, testConfig())
	for _, year := range []int{2023, 2024, 2024} {
		rec := do(t, s, http.MethodPost, "/api/forms", formBody("NEC", year, map[string]any{"nonemployeeCompensation": "100"}))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	all := decodeBody[formsResponse](t, do(t, s, http.MethodGet, "/api/forms", nil))
	assert.Equal(t, 3, all.Count)

	only := decodeBody[formsResponse](t, do(t, s, http.MethodGet, "/api/forms?taxYear=2024", nil))
	assert.Equal(t, 2, only.Count)

	bad := do(t, s, http.MethodGet, "/api/forms?taxYear=soon", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/preview", map[string]any{
		"formType": "int",
		"data":     formBody("INT", 2024, map[string]any{"interestIncome": "0", "foreignTaxPaid": "15.25"})["data"],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":15.25`)

	resp := decodeBody[previewResponse](t, rec)
	assert.Equal(t, "INT", resp.FormType)
	require.Len(t, resp.Entries, 1, "zero interest produces no entry")
	assert.Equal(t, "Schedule 3 Line 1", resp.Entries[0].Line)

	list := decodeBody[formsResponse](t, do(t, s, http.MethodGet, "/api/forms", nil))
	assert.Zero(t, list.Count, "preview stores nothing")
}

func TestExport_AggregatesAcrossForms(t *testing.T) {
	s := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/forms", formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "10000"}))
	do(t, s, http.MethodPost, "/api/forms", formBody("K", 2024, map[string]any{"grossAmount": "5500"}))

	rec := do(t, s, http.MethodGet, "/api/export?taxYear=2024&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "form-1040-summary-2024.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Schedule C", rows[1][0])
	assert.Equal(t, "15500.00", rows[1][3])

	js := do(t, s, http.MethodGet, "/api/export?taxYear=2024", nil)
	require.Equal(t, http.StatusOK, js.Code)
	assert.Contains(t, js.Header().Get("Content-Disposition"), "form-1040-summary-2024.json")
	summary := decodeBody[map[string]any](t, js)
	assert.Equal(t, float64(2), summary["totalForms"])
}

func TestExport_XLSX(t *testing.T) {
	s := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/forms", formBody("INT", 2024, map[string]any{"interestIncome": "42.10"}))

	rec := do(t, s, http.MethodGet, "/api/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "form-1040-summary-current.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Form 1040")
}

func TestExport_UnknownFormat(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/api/export?format=pdf", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL006", decodeBody[ErrorResponse](t, rec).Code)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/forms", formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "10000"}))

	rec := do(t, s, http.MethodGet, "/?taxYear=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	html := rec.Body.String()
	assert.Contains(t, html, "Form 1040 Summary")
	assert.Contains(t, html, "$10000.00")
	assert.Contains(t, html, "tax year 2024")
	assert.Contains(t, html, "Acme Corp")
}

func TestDashboard_EscapesStoredText(t *testing.T) {
	s := newTestServer(t, testConfig())
	body := formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "1"})
	body["data"].(map[string]any)["payer"].(map[string]any)["name"] = "Tom & Jerry's"
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/forms", body).Code)

	html := do(t, s, http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, html, "Tom &amp; Jerry&#39;s")
}

func TestAuth_ScopesFormsPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef"}
	s := newTestServer(t, cfg)

	token := func(user string) string {
		tok, err := middleware.IssueToken(&cfg.Auth, user, jwt.RegisteredClaims{})
		require.NoError(t, err)
		return "Bearer " + tok
	}
	call := func(method, path, auth string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/forms", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/healthz", "", nil).Code)

	created := call(http.MethodPost, "/api/forms", token("alice"),
		formBody("NEC", 2024, map[string]any{"nonemployeeCompensation": "500"}))
	require.Equal(t, http.StatusCreated, created.Code)
	id := decodeBody[core.StoredForm](t, created).ID

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/forms/"+id, token("alice"), nil).Code)
	assert.Equal(t, http.StatusNotFound, call(http.MethodGet, "/api/forms/"+id, token("bob"), nil).Code)

	bobs := decodeBody[formsResponse](t, call(http.MethodGet, "/api/forms", token("bob"), nil))
	assert.Zero(t, bobs.Count)
}

func TestRateLimit_Returns429(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)
	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeBody[ErrorResponse](t, rec).Code)
}

func TestExport_BusyWhenSlotsTaken(t *testing.T) {
	cfg := testConfig()
	cfg.Export = config.ExportConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond}
	s := newTestServer(t, cfg)

	require.NoError(t, s.exports.Acquire(context.Background()))
	rec := do(t, s, http.MethodGet, "/api/export?format=csv", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE002", decodeBody[ErrorResponse](t, rec).Code)

	s.exports.Release()
	rec = do(t, s, http.MethodGet, "/api/export?format=csv", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.exports.Available())
}

func TestDashboard_PlainTextError(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := do(t, s, http.MethodGet, "/?taxYear=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "(Code: VAL006)")
}
