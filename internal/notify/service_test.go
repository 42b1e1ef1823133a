package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunMailsPlantsAndAuditors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	mailer := &stubMailer{}
	counters := &stubCounters{excluded: 3}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir, Recipients: []string{"ops@almendra.example"}}},
		WithAuditors([]string{"audit@example.com"}),
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }))

	summary := service.Run(context.Background())
	if summary.Plants != 1 || summary.MailsSent != 2 || summary.MailsFailed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	plant := mailer.sent[0]
	if plant.to != "ops@almendra.example" || !strings.Contains(plant.subject, "Almendra") {
		t.Fatalf("unexpected plant mail: to=%s subject=%s", plant.to, plant.subject)
	}
	if !strings.Contains(plant.body, "export.csv") || !strings.Contains(plant.body, statusValidated.Title) {
		t.Fatalf("plant mail body missing expected content")
	}

	audit := mailer.sent[1]
	if audit.to != "audit@example.com" {
		t.Fatalf("unexpected audit recipient: %s", audit.to)
	}
	for _, want := range []string{"Almendra", statusValidated.Label, "01/06/2024"} {
		if !strings.Contains(audit.body, want) {
			t.Fatalf("audit mail body missing %q", want)
		}
	}
}

func TestRunAlertsWhenNoNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	mailer := &stubMailer{}
	counters := &stubCounters{}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir, Recipients: []string{"ops@almendra.example"}}})

	service.Run(context.Background())
	service.Run(context.Background())

	if len(mailer.sent) != 2 {
		t.Fatalf("expected one plant mail per run, got %d", len(mailer.sent))
	}
	second := mailer.sent[1]
	if !strings.Contains(second.body, statusMissing.Title) {
		t.Fatalf("expected the second run to alert on missing files")
	}
	if strings.Contains(second.body, "export.csv") {
		t.Fatalf("expected no file listed once the state advanced")
	}
}

func TestRunErrorsStatusAsksForReview(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	mailer := &stubMailer{}
	counters := &stubCounters{errors: 7}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir, Recipients: []string{"ops@almendra.example"}}})

	service.Run(context.Background())

	body := mailer.sent[0].body
	if !strings.Contains(body, statusWithErrors.Title) {
		t.Fatalf("expected the errors variant, got: %s", body)
	}
	if !strings.Contains(body, "Please review and correct") {
		t.Fatalf("expected the correction request in the body")
	}
	if !strings.Contains(body, ">7<") {
		t.Fatalf("expected the error count rendered")
	}
}

func TestRunReportsSameFilesAfterFailedDelivery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	mailer := &stubMailer{err: errors.New("relay down")}
	counters := &stubCounters{}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir, Recipients: []string{"ops@almendra.example"}}})

	summary := service.Run(context.Background())
	if summary.MailsFailed != 1 || summary.MailsSent != 0 {
		t.Fatalf("unexpected summary after failed delivery: %+v", summary)
	}

	// State must not advance, so the retry still lists the file.
	mailer.err = nil
	service.Run(context.Background())
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].body, "export.csv") {
		t.Fatalf("expected the retry to report the same file")
	}
}

func TestRunSkipsPlantWithoutRecipients(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	mailer := &stubMailer{}
	counters := &stubCounters{}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir}},
		WithAuditors([]string{"audit@example.com"}))

	summary := service.Run(context.Background())
	if summary.MailsSent != 1 {
		t.Fatalf("expected only the audit mail sent, got %+v", summary)
	}
	if !strings.Contains(mailer.sent[0].body, "Almendra") {
		t.Fatalf("expected the plant still listed for auditors")
	}
}

func TestRunUnconfiguredRelayCountsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.csv")

	counters := &stubCounters{}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		&SMTPMailer{}, counters, counters,
		[]Plant{{Name: "Almendra", Dir: dir, Recipients: []string{"ops@almendra.example"}}})

	summary := service.Run(context.Background())
	if summary.MailsSent != 0 || summary.MailsFailed != 1 {
		t.Fatalf("expected the unconfigured relay counted as failed, got %+v", summary)
	}
}

func TestRunCountsMetricsOncePerPass(t *testing.T) {
	mailer := &stubMailer{}
	counters := &stubCounters{}
	plants := []Plant{
		{Name: "Almendra", Dir: t.TempDir(), Recipients: []string{"a@example.com"}},
		{Name: "Socoro", Dir: t.TempDir(), Recipients: []string{"b@example.com"}},
	}
	service := NewService(NewMonitor(filepath.Join(t.TempDir(), "state.json")),
		mailer, counters, counters, plants)

	service.Run(context.Background())
	if counters.errorCalls != 1 || counters.exclusionCalls != 1 {
		t.Fatalf("expected one count query per pass, got %d and %d",
			counters.errorCalls, counters.exclusionCalls)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(false, 9); got != statusMissing {
		t.Fatalf("missing files must win over errors, got %+v", got)
	}
	if got := statusFor(true, 1); got != statusWithErrors {
		t.Fatalf("expected the errors variant, got %+v", got)
	}
	if got := statusFor(true, 0); got != statusValidated {
		t.Fatalf("expected the validated variant, got %+v", got)
	}
}

func TestMessageHeaders(t *testing.T) {
	msg := string(message("from@example.com", "to@example.com", "Validation status: Peñarol", "<html></html>"))

	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Fatalf("expected an html content type: %s", msg)
	}
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("expected the non-ascii subject encoded: %s", msg)
	}
	if !strings.HasSuffix(msg, "\r\n<html></html>") {
		t.Fatalf("expected the body after a blank line: %s", msg)
	}
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type stubMailer struct {
	err  error
	sent []sentMail
}

func (s *stubMailer) Send(to, subject, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type stubCounters struct {
	errors         int64
	excluded       int64
	countErr       error
	errorCalls     int
	exclusionCalls int
}

func (s *stubCounters) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	s.errorCalls++
	return s.errors, s.countErr
}

func (s *stubCounters) CountLogsForDay(ctx context.Context, day time.Time) (int64, error) {
	s.exclusionCalls++
	return s.excluded, nil
}

var _ Mailer = (*stubMailer)(nil)
var _ ErrorCounter = (*stubCounters)(nil)
var _ ExclusionCounter = (*stubCounters)(nil)
