package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/form1099/internal/core"
)

func sampleSummary() core.Summary {
	return core.Summary{
		TaxYear:     2024,
		TotalForms:  3,
		FormsByType: map[core.FormType]int{core.FormNEC: 1, core.FormK: 1, core.FormINT: 1},
		GeneratedAt: time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
		Lines: []core.AggregatedLine{
			{
				Line:        "2b",
				Description: "Taxable interest",
				TotalAmount: decimal.RequireFromString("0.10"),
				Sources: []core.Source{
					{FormType: core.FormINT, FormID: "int-1", Amount: decimal.RequireFromString("0.10")},
				},
			},
			{
				Line:        "Schedule C",
				Description: `Business income, "gross receipts"`,
				Schedule:    "C",
				TotalAmount: decimal.RequireFromString("15500"),
				Sources: []core.Source{
					{FormType: core.FormNEC, FormID: "nec-1", Amount: decimal.RequireFromString("10000")},
					{FormType: core.FormK, FormID: "k-1", Amount: decimal.RequireFromString("5500")},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":      FormatJSON,
		"json":  FormatJSON,
		"CSV":   FormatCSV,
		" xlsx": FormatXLSX,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, "ParseFormat(%q)", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestFilenameAndContentType(t *testing.T) {
	year := 2024
	assert.Equal(t, "form-1040-summary-2024.csv", Filename(&year, FormatCSV))
	assert.Equal(t, "form-1040-summary-current.json", Filename(nil, FormatJSON))

	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Form 1040 Line,Description,Schedule,Total Amount,Source Forms", lines[0])
	assert.Equal(t, `"2b","Taxable interest",,0.10,"INT:$0.1"`, lines[1])
	assert.Equal(t, `"Schedule C","Business income, ""gross receipts""",C,15500.00,"NEC:$10000;K:$5500"`, lines[2])
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSummary()))

	totals, err := ParseCSVTotals(&buf)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.True(t, totals["2b"].Equal(decimal.RequireFromString("0.1")))
	assert.True(t, totals["Schedule C"].Equal(decimal.RequireFromString("15500")))
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, core.Summary{TaxYear: 2024}))
	assert.Equal(t, strings.Join(CSVHeader, ",")+"\n", buf.String())

	totals, err := ParseCSVTotals(&buf)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestParseCSVTotals_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"bad header": "Line,Amount\n",
		"bad total":  strings.Join(CSVHeader, ",") + "\n\"1a\",\"Wages\",,lots,\"\"\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSVTotals(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestCSVEscapeField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"C", "C"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"two\nlines", "\"two\nlines\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, csvEscapeField(tt.in), "csvEscapeField(%q)", tt.in)
	}
}

func TestWriteJSON_ExactNumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSummary()))

	out := buf.String()
	assert.Contains(t, out, `"totalAmount": 0.1`)
	assert.Contains(t, out, `"totalAmount": 15500`)
	assert.Contains(t, out, `"form1040Lines"`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2024, got.TaxYear)
	assert.Equal(t, 3, got.TotalForms)
	assert.Equal(t, 1, got.FormsByType[core.FormK])
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[1].TotalAmount.Equal(decimal.RequireFromString("15500")))
	require.Len(t, got.Lines[1].Sources, 2)
	assert.Equal(t, "k-1", got.Lines[1].Sources[1].FormID)
}

func TestWriteJSON_EmptySummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, core.Summary{TaxYear: 2024}))

	assert.Contains(t, buf.String(), `"form1040Lines": []`)
	assert.Contains(t, buf.String(), `"formsByType": {}`)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleSummary()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{linesSheet, formsSheet}, f.GetSheetList())

	rows, err := f.GetRows(linesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "Schedule C", rows[2][0])
	assert.Equal(t, "NEC:$10000;K:$5500", rows[2][4])

	total, err := f.GetCellValue(linesSheet, "D3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "15500", total)

	counts, err := f.GetRows(formsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Form Type", "Count"},
		{"1099-NEC", "1"},
		{"1099-INT", "1"},
		{"1099-K", "1"},
		{"Total", "3"},
		{"Tax Year", "2024"},
	}, counts)
}

func TestWrite_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatCSV, FormatXLSX} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, sampleSummary()), "format %s", f)
		assert.NotZero(t, buf.Len())
	}
}
