package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

var yoyTableTemplate = template.Must(template.New("yoyTable").Funcs(template.FuncMap{
	"currency": FormatCurrency,
	"pct":      FormatPct,
}).Parse(`
<div id="yoy-content">
<p class="branch-caption">Branch: <strong>{{.Branch.Label}}</strong> (InternalID = {{.Branch.ID}}) — rows fetched: {{.Report.RowsFetched}}</p>
<table class="modern-table">
<thead><tr><th>Month</th><th>Total {{.Report.YearA}}</th><th>Total {{.Report.YearB}}</th><th>Diff</th><th>YoY %</th></tr></thead>
<tbody>
{{range .Report.Rows}}<tr>
<td>{{.MonthName}}</td>
<td>{{currency .TotalA}}</td>
<td>{{currency .TotalB}}</td>
<td>{{currency .Diff}}</td>
<td><strong>{{pct .Pct}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

// SSEHandlers drives the datastar panels on the dashboard page.
type SSEHandlers struct {
	api    *APIHandlers
	logger *slog.Logger
}

func NewSSEHandlers(api *APIHandlers, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{api: api, logger: logger}
}

// HandleRevenue runs the comparison for the selected branch and patches the
// metrics signals plus the table fragment. Failures surface as a visible
// warning over the same element, never a broken stream.
func (h *SSEHandlers) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	branch, appErr := h.api.resolveBranch(r)
	if appErr != nil {
		sse.PatchElements(warningFragment(appErr.Message))
		flush(w)
		return
	}

	resp := h.api.runComparison(r, branch)

	signals, err := json.Marshal(map[string]any{
		"totalA":     FormatCurrency(resp.Report.TotalA),
		"totalB":     FormatCurrency(resp.Report.TotalB),
		"yoyTotal":   FormatPct(resp.Report.OverallPct),
		"yearA":      resp.Report.YearA,
		"yearB":      resp.Report.YearB,
		"branch":     resp.Branch.Label,
		"rowsLoaded": resp.Report.RowsFetched,
	})
	if err != nil {
		h.logger.Error("marshal revenue signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	switch {
	case resp.QueryError != "":
		sse.PatchElements(warningFragment("Query failed: " + resp.QueryError))
	case resp.NoData:
		sse.PatchElements(warningFragment(fmt.Sprintf(
			"No data for this branch in %d–%d.", resp.Report.YearA, resp.Report.YearB)))
	default:
		var buf strings.Builder
		if err := yoyTableTemplate.Execute(&buf, resp); err != nil {
			h.logger.Error("render yoy table", "error", err)
			return
		}
		sse.PatchElements(buf.String())
	}

	flush(w)
}

func warningFragment(message string) string {
	var buf strings.Builder
	buf.WriteString(`<div id="yoy-content"><div class="warning">⚠️ `)
	template.HTMLEscape(&buf, []byte(message))
	buf.WriteString(`</div></div>`)
	return buf.String()
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
