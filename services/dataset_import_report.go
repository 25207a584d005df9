package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"research-registry-api/config"
)

var sendReportMail = config.SendMail

var datasetImportReportTemplate = template.Must(template.New("dataset_import_report").Parse(`<h2>Dataset import: {{.Status}}</h2>
<p>Trigger: {{.Trigger}}<br>Faculty file: {{.FacultyPath}}<br>Papers file: {{.PapersPath}}<br>Finished: {{.FinishedAt}}</p>
{{if .Error}}<p style="color:#b00020">Error: {{.Error}}</p>{{end}}
{{with .Summary}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th></th><th>created</th><th>updated</th><th>skipped</th></tr>
<tr><td>faculty</td><td>{{.FacultyCreated}}</td><td>{{.FacultyUpdated}}</td><td>{{.FacultySkipped}}</td></tr>
<tr><td>papers</td><td>{{.PapersCreated}}</td><td>{{.PapersUpdated}}</td><td>{{.PapersSkipped}}</td></tr>
</table>
<p>Links: {{.LinkAttempts}} attempts, {{.LinksCreated}} new</p>{{end}}`))

// DatasetImportReporter mails a run summary to a fixed recipient list.
type DatasetImportReporter struct {
	recipients []string
}

func NewDatasetImportReporter(recipients []string) *DatasetImportReporter {
	return &DatasetImportReporter{recipients: recipients}
}

// Send is a no-op without recipients.
func (r *DatasetImportReporter) Send(input *DatasetImportInput, outcome *DatasetImportOutcome, summary *DatasetImportSummary, runErr error) error {
	if r == nil || len(r.recipients) == 0 || input == nil {
		return nil
	}
	subject, body, err := renderDatasetImportReport(input, outcome, summary, runErr)
	if err != nil {
		return err
	}
	return sendReportMail(r.recipients, subject, body)
}

func renderDatasetImportReport(input *DatasetImportInput, outcome *DatasetImportOutcome, summary *DatasetImportSummary, runErr error) (string, string, error) {
	status, label := "failed", "failed"
	switch {
	case runErr != nil:
	case outcome.DryRun():
		status, label = "dry run (rolled back)", "dry-run"
	default:
		status, label = "committed", "committed"
	}

	data := struct {
		Status      string
		Trigger     string
		FacultyPath string
		PapersPath  string
		FinishedAt  string
		Error       string
		Summary     *DatasetImportSummary
	}{
		Status:      status,
		Trigger:     input.TriggerSource,
		FacultyPath: input.FacultyPath,
		PapersPath:  input.PapersPath,
		FinishedAt:  time.Now().Format(time.RFC3339),
		Summary:     summary,
	}
	if runErr != nil {
		data.Error = truncateErrorMessage(runErr.Error())
	}

	var buf bytes.Buffer
	if err := datasetImportReportTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("[registry] dataset import %s", label)
	return subject, buf.String(), nil
}
