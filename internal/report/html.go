package report

import (
	"html"
	"io"

	"github.com/sprite-ai/diffgate/internal/model"
)

// HTMLWriter renders a standalone HTML page.
type HTMLWriter struct{}

func (h *HTMLWriter) Write(w io.Writer, r *model.Report) error {
	ew := &errWriter{w: w}

	ew.println(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>diffgate report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; }
  .summary span { margin-right: 24px; }
  .sev-error { color: #ff5555; font-weight: bold; }
  .sev-warning { color: #f1fa8c; }
  .sev-info { color: #8be9fd; }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; vertical-align: top; }
  .passed { color: #50fa7b; }
  .failed { color: #ff5555; }
  code, pre { background: #343746; padding: 2px 6px; border-radius: 4px; font-size: 0.9em; white-space: pre-wrap; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>diffgate report</h1>`)

	class := "passed"
	if !r.Summary.Passed {
		class = "failed"
	}
	ew.printf(`<div class="summary">
  <span class="%s"><strong>%s</strong></span>
  <span>%s &rarr; %s</span>
  <span>%d error(s), %d warning(s), %d info</span>
</div>
`, class, verdict(r), html.EscapeString(r.CurrentBranch), html.EscapeString(r.TargetBranch),
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)

	all := r.Findings.All()
	if len(all) == 0 {
		ew.println(`<p class="passed">No issues found.</p>`)
	} else {
		ew.println(`<table>
<thead><tr><th>Severity</th><th>Rule</th><th>Location</th><th>Message</th></tr></thead>
<tbody>`)
		for _, f := range all {
			ew.printf(`<tr><td class="sev-%s">%s</td><td>%s</td><td><code>%s</code></td><td>%s`,
				f.Severity, f.Severity, html.EscapeString(f.RuleID), html.EscapeString(location(f)), html.EscapeString(f.Message))
			if f.Detail != "" {
				ew.printf(`<pre>%s</pre>`, html.EscapeString(f.Detail))
			}
			ew.println(`</td></tr>`)
		}
		ew.println(`</tbody></table>`)
	}

	ew.printf("<footer>Generated by <strong>diffgate</strong> %s at %s</footer>\n</body>\n</html>\n",
		html.EscapeString(r.Version), html.EscapeString(r.Timestamp))
	return ew.err
}
