package http

import (
	"html/template"
	"log/slog"
	"net/http"
)

type indexPage struct {
	Version string
	Actions []string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>excelflow</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        table { border-collapse: collapse; margin-top: 16px; }
        th, td { border: 1px solid #ccc; padding: 4px 8px; }
        .status { padding: 10px; margin: 10px 0; border-radius: 4px; background-color: #d1ecf1; color: #0c5460; }
        .error { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>excelflow</h1>
    <form id="upload">
        <input type="file" name="file" accept=".csv,.xlsx,.xls">
        <button type="submit">Upload</button>
    </form>
    <div id="actions" hidden>
        {{range .Actions}}<button data-action="{{.}}">{{.}}</button> {{end}}
        <a id="download" href="#">Download processed_data.xlsx</a>
    </div>
    <div id="status" class="status">Upload a CSV or Excel file to begin.</div>
    <div id="report" hidden>
        <a id="summary" href="#">summary.xlsx</a>
        <img id="chart" alt="histogram" width="480">
    </div>
    <div id="preview"></div>
    <footer><small>version {{.Version}}</small></footer>
<script>
let datasetId = null;
const statusBox = document.getElementById('status');

function show(msg, isError) {
    statusBox.textContent = msg;
    statusBox.className = isError ? 'status error' : 'status';
}

function renderPreview(columns, rows) {
    const table = document.createElement('table');
    const head = table.insertRow();
    columns.forEach(c => { const th = document.createElement('th'); th.textContent = c.name; head.appendChild(th); });
    rows.forEach(r => {
        const tr = table.insertRow();
        columns.forEach(c => { tr.insertCell().textContent = r[c.name] === null ? 'NaN' : r[c.name]; });
    });
    const box = document.getElementById('preview');
    box.replaceChildren(table);
}

async function refresh() {
    const res = await fetch('/api/datasets/' + datasetId + '/preview');
    const body = await res.json();
    renderPreview(body.columns, body.rows);
}

document.getElementById('upload').addEventListener('submit', async e => {
    e.preventDefault();
    const res = await fetch('/api/datasets', { method: 'POST', body: new FormData(e.target) });
    const body = await res.json();
    if (!res.ok) { show(body.detail || body.title, true); return; }
    datasetId = body.id;
    document.getElementById('actions').hidden = false;
    document.getElementById('download').href = '/api/datasets/' + datasetId + '/download';
    show('Loaded ' + body.file_name + ' (' + body.rows + ' rows)');
    renderPreview(body.columns, body.preview || []);
});

document.querySelectorAll('[data-action]').forEach(btn => btn.addEventListener('click', async () => {
    const action = btn.dataset.action;
    const res = await fetch('/api/datasets/' + datasetId + '/actions', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ action })
    });
    const body = await res.json();
    if (!res.ok) { show(body.detail || body.title, true); return; }
    show(action + ' complete: ' + body.dataset.rows + ' rows');
    if (action === 'report') {
        const base = '/api/datasets/' + datasetId + '/report/';
        document.getElementById('report').hidden = false;
        document.getElementById('summary').href = base + 'summary';
        document.getElementById('chart').src = base + 'chart?t=' + Date.now();
    }
    refresh();
}));
</script>
</body>
</html>
`))

// ServeIndex serves the single-page upload UI
func ServeIndex(version string, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	page := indexPage{
		Version: version,
		Actions: []string{"clean", "transform", "validate", "report"},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, page); err != nil {
			logger.ErrorContext(r.Context(), "failed to render index page", slog.String("error", err.Error()))
		}
	}
}
