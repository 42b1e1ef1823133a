package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// mailStatus selects the colorway and wording for one plant outcome.
type mailStatus struct {
	Color string
	Icon  string
	Title string
	Label string
}

var (
	statusMissing    = mailStatus{Color: "#dc3545", Icon: "⚠️", Title: "Alert: no new files detected", Label: "Missing"}
	statusWithErrors = mailStatus{Color: "#ffc107", Icon: "❌", Title: "Alert: data received with errors", Label: "With errors"}
	statusValidated  = mailStatus{Color: "#28a745", Icon: "✅", Title: "Data received and validated", Label: "Validated"}
)

// statusFor grades one plant: no files beats everything, then the day's
// error count decides between the warning and the all-clear.
func statusFor(hasFiles bool, errors int64) mailStatus {
	switch {
	case !hasFiles:
		return statusMissing
	case errors > 0:
		return statusWithErrors
	default:
		return statusValidated
	}
}

// plantMail feeds the per-plant message template.
type plantMail struct {
	Status   mailStatus
	Plant    string
	Files    []string
	Errors   int64
	Excluded int64
}

// NeedsReview shows the correction request only when files arrived broken.
func (m plantMail) NeedsReview() bool {
	return len(m.Files) > 0 && m.Errors > 0
}

// auditRow is one plant line in the auditors' summary table.
type auditRow struct {
	Status   mailStatus
	Plant    string
	Files    int
	Errors   int64
	Excluded int64
}

type auditMail struct {
	Date string
	Rows []auditRow
}

var (
	plantTemplate = template.Must(template.New("plant").Parse(plantMailBody))
	auditTemplate = template.Must(template.New("audit").Parse(auditMailBody))
)

func renderPlantMail(data plantMail) (string, error) {
	var buf strings.Builder
	if err := plantTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render plant mail: %w", err)
	}
	return buf.String(), nil
}

func renderAuditMail(data auditMail) (string, error) {
	var buf strings.Builder
	if err := auditTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render audit mail: %w", err)
	}
	return buf.String(), nil
}

const plantMailBody = `<html>
<head>
<style>
  body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 20px auto; background: #fff; border-radius: 12px; box-shadow: 0 4px 15px rgba(0,0,0,0.1); overflow: hidden; }
  .header { background-color: {{.Status.Color}}; color: white; padding: 25px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .header p { font-size: 18px; margin: 5px 0 0; }
  .content { padding: 30px; }
  .metrics { display: flex; justify-content: space-around; text-align: center; margin-top: 20px; padding: 15px; background: #f8f9fa; border-radius: 8px; }
  .metric div:first-child { font-size: 16px; color: #555; }
  .metric span { display: block; font-size: 28px; font-weight: bold; color: #333; }
  ul { padding-left: 20px; }
  code { background-color: #eee; padding: 2px 5px; border-radius: 4px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Status.Icon}} {{.Status.Title}}</h1>
    <p>Plant: {{.Plant}}</p>
  </div>
  <div class="content">
    {{if .Files}}<h3>New files detected:</h3>
    <ul>
      {{range .Files}}<li><code>{{.}}</code></li>
      {{end}}
    </ul>
    {{else}}<p>No new files were found in the plant directory.</p>
    {{end}}{{if .NeedsReview}}<p style="text-align: center; font-weight: bold; color: #b54a09;">Please review and correct the reported data errors.</p>
    {{end}}<div class="metrics">
      <div class="metric">
        <div>Data errors</div>
        <span>{{.Errors}}</span>
      </div>
      <div class="metric">
        <div>Excluded periods</div>
        <span>{{.Excluded}}</span>
      </div>
      <div class="metric">
        <div>Files processed</div>
        <span>{{len .Files}}</span>
      </div>
    </div>
  </div>
</div>
</body>
</html>
`

const auditMailBody = `<html>
<head>
<style>
  body { font-family: Arial, Helvetica, sans-serif; }
  .container { max-width: 800px; margin: 20px auto; background: #fff; border: 1px solid #e9e9e9; border-radius: 8px; box-shadow: 0 2px 5px rgba(0,0,0,0.05); }
  .header { background: #0056b3; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
  .header h1 { margin: 0; }
  .content { padding: 25px; }
  table { width: 100%; border-collapse: collapse; }
  th { background-color: #f2f2f2; padding: 12px; text-align: left; border-bottom: 2px solid #ddd; }
  td { padding: 12px; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Plant audit report</h1>
    <p>Date: {{.Date}}</p>
  </div>
  <div class="content">
    <table>
      <thead>
        <tr>
          <th style="text-align: center;">Status</th>
          <th>Plant</th>
          <th style="text-align: center;">Files</th>
          <th style="text-align: center;">Errors</th>
          <th style="text-align: center;">Excluded</th>
        </tr>
      </thead>
      <tbody>
        {{range .Rows}}<tr>
          <td style="color: {{.Status.Color}}; text-align: center;"><strong>{{.Status.Icon}} {{.Status.Label}}</strong></td>
          <td>{{.Plant}}</td>
          <td style="text-align: center;">{{.Files}}</td>
          <td style="text-align: center;">{{.Errors}}</td>
          <td style="text-align: center;">{{.Excluded}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </div>
</div>
</body>
</html>
`
