// Package templates holds the server-rendered page shell. The data panels
// inside it are patched over SSE; the shell itself re-renders fully on every
// auth transition.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"revenue-dashboard/internal/models"
)

type PageData struct {
	Authenticated  bool
	LoginError     string
	BranchesLoaded bool
	Options        []models.BranchOption
	IdleTimeoutMin int
	YearA          int
	YearB          int
}

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Revenue Comparison {{.YearA}} vs {{.YearB}} — per Branch (YoY)</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:72rem;padding:0 1rem}
.warning{background:#fff3cd;border:1px solid #ffe69c;border-radius:6px;padding:.75rem 1rem}
.error{background:#f8d7da;border:1px solid #f1aeb5;border-radius:6px;padding:.75rem 1rem}
.metrics{display:flex;gap:1rem;margin:1rem 0}
.metric{flex:1;border:1px solid #ddd;border-radius:8px;padding:1rem}
.metric .value{font-size:1.5rem;font-weight:700}
.modern-table{border-collapse:collapse;width:100%}
.modern-table th,.modern-table td{border-bottom:1px solid #eee;padding:.5rem .75rem;text-align:right}
.modern-table th:first-child,.modern-table td:first-child{text-align:left}
.caption{color:#666;font-size:.85rem}
</style>
</head>
<body>
{{if not .Authenticated}}
<h1>Login</h1>
{{if .LoginError}}<div class="error">{{.LoginError}}</div>{{end}}
<form method="post" action="/login">
<label>Enter password <input type="password" name="password" autofocus></label>
<button type="submit">Sign in</button>
</form>
{{else}}
<h1>Revenue Comparison {{.YearA}} vs {{.YearB}} — per Branch (YoY)</h1>
<p>Pick a <strong>branch</strong> from the master CSV, then run the live query over the SSH tunnel.</p>
<p class="caption">Login active • auto-logout after {{.IdleTimeoutMin}} min idle</p>
<form method="post" action="/logout"><button type="submit">Logout</button></form>
{{if not .BranchesLoaded}}
<div class="warning">⚠️ Please provide the branch master CSV first (required columns: InternalID, Branch_Name).</div>
{{else}}
<div data-signals="{branch:'',totalA:'—',totalB:'—',yoyTotal:'—',rowsLoaded:0}">
<h2>Revenue Comparison</h2>
<label>Pick branch
<select data-bind-branch>
<option value="" disabled selected>Choose a branch…</option>
{{range .Options}}<option value="{{.ID}}">{{.Label}}</option>{{end}}
</select>
</label>
<button data-on-click="@get('/sse/revenue?branch=' + $branch)">Run</button>
<div class="metrics">
<div class="metric"><div>Total {{.YearA}}</div><div class="value" data-text="$totalA"></div></div>
<div class="metric"><div>Total {{.YearB}}</div><div class="value" data-text="$totalB"></div></div>
<div class="metric"><div>YoY Total</div><div class="value" data-text="$yoyTotal"></div></div>
</div>
<div id="yoy-content"></div>
</div>
{{end}}
{{end}}
</body>
</html>`))

// Dashboard renders the page shell for the current auth and data state.
func Dashboard(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return dashboardPage.Execute(w, data)
	})
}
