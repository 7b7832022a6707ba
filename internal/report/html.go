package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	Summary
	GeneratedAt string
	LengthsJSON string
}

// WriteHTML generates a standalone HTML report with an embedded length chart.
func WriteHTML(w io.Writer, s Summary) error {
	chart := struct {
		Labels  []string  `json:"labels"`
		Lengths []float64 `json:"lengths"`
	}{
		Labels:  make([]string, len(s.Rows)),
		Lengths: make([]float64, len(s.Rows)),
	}
	for i, r := range s.Rows {
		chart.Labels[i] = r.Input + "→" + r.Output
		chart.Lengths[i] = r.Length
	}
	lengthsJSON, err := json.Marshal(chart)
	if err != nil {
		return fmt.Errorf("failed to marshal lengths: %w", err)
	}

	generated := s.Metadata.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	data := HTMLReportData{
		Summary:     s,
		GeneratedAt: generated.UTC().Format(time.RFC3339),
		LengthsJSON: string(lengthsJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatLength": FormatLength,
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.4f", f)
		},
		"formatSeconds": func(f float64) string {
			return fmt.Sprintf("%.3f s", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// WriteHTMLFile writes the HTML report to path.
func WriteHTMLFile(path string, s Summary) error {
	return writeFile(path, s, WriteHTML)
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Path Length Report {{.Metadata.RunID}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #0f766e 0%, #1e3a8a 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #0f766e;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        td.num {
            text-align: right;
            font-variant-numeric: tabular-nums;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>Path Length Report</h1>
            <div class="meta">Run: {{.Metadata.RunID}}{{if .Metadata.ULID}} ({{.Metadata.ULID}}){{end}}</div>
            <div class="meta">Layout: {{.Metadata.GDSPath}}{{if .Metadata.Cell}} | Cell: {{.Metadata.Cell}}{{end}}</div>
            <div class="meta">Generated: {{.GeneratedAt}} | Measured in {{formatSeconds .Metadata.ElapsedSeconds}}</div>
            {{if .Metadata.Traceparent}}<div class="meta">Trace: {{.Metadata.Traceparent}}</div>{{end}}
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Routes</h3>
                    <div class="value">{{.Stats.Routes}}</div>
                </div>
                <div class="card">
                    <h3>Longest</h3>
                    <div class="value">{{formatFloat .Stats.MaxLength}}</div>
                </div>
                <div class="card">
                    <h3>Shortest</h3>
                    <div class="value">{{formatFloat .Stats.MinLength}}</div>
                </div>
                <div class="card">
                    <h3>Skew</h3>
                    <div class="value">{{formatFloat .Stats.Skew}}</div>
                </div>
            </div>

            {{if .Rows}}
            <div class="section">
                <h2>Route Lengths</h2>
                <div id="length-chart" class="chart"></div>
            </div>
            {{end}}

            <div class="section">
                <h2>Routes</h2>
                {{if .Rows}}
                <table>
                    <thead>
                        <tr>
                            <th>Input</th>
                            <th>Output</th>
                            <th>Length</th>
                            <th>Segments</th>
                            <th>Bends</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Rows}}
                        <tr>
                            <td><strong>{{.Input}}</strong></td>
                            <td><strong>{{.Output}}</strong></td>
                            <td class="num">{{formatLength .Length}}</td>
                            <td class="num">{{.Segments}}</td>
                            <td class="num">{{.Bends}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No routes were measured.</div>
                {{end}}
            </div>

            {{if .Checks}}
            <div class="section">
                <h2>Checks ({{.Checks.Passed}}/{{.Checks.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Check</th>
                            <th>Metric</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Checks.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Metric}} ({{.Aggregate}})</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .Rows}}
    <script>
        const chart = JSON.parse({{.LengthsJSON}});
        const xs = chart.lengths.map((_, i) => i);

        new uPlot({
            title: "Length per route",
            width: document.getElementById('length-chart').offsetWidth,
            height: 300,
            scales: { x: { time: false } },
            series: [
                { label: "Route", value: (u, i) => i == null ? "" : chart.labels[i] },
                {
                    label: "Length",
                    stroke: "#0f766e",
                    fill: "rgba(15, 118, 110, 0.1)",
                    width: 2,
                    points: { show: true }
                }
            ],
            axes: [
                { label: "Route" },
                { label: "Length" }
            ]
        }, [xs, chart.lengths], document.getElementById('length-chart'));
    </script>
    {{end}}
</body>
</html>
`
