package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// ErrorCounter reports how many validation errors were recorded on a day.
type ErrorCounter interface {
	CountForDay(ctx context.Context, day time.Time) (int64, error)
}

// ExclusionCounter reports how many exclusion log entries were written on a
// day.
type ExclusionCounter interface {
	CountLogsForDay(ctx context.Context, day time.Time) (int64, error)
}

// Plant is one monitored drop directory and who hears about it.
type Plant struct {
	Name       string
	Dir        string
	Recipients []string
}

// Service runs one notification pass: per-plant status mails first, then the
// auditors' cross-plant summary.
type Service struct {
	monitor    *Monitor
	mailer     Mailer
	errors     ErrorCounter
	exclusions ExclusionCounter
	plants     []Plant
	auditors   []string
	now        func() time.Time
}

type Option func(*Service)

// WithAuditors adds recipients for the cross-plant summary mail.
func WithAuditors(emails []string) Option {
	return func(s *Service) {
		s.auditors = emails
	}
}

// WithClock overrides the day the metrics are counted for.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(monitor *Monitor, mailer Mailer, errs ErrorCounter, exclusions ExclusionCounter, plants []Plant, opts ...Option) *Service {
	service := &Service{
		monitor:    monitor,
		mailer:     mailer,
		errors:     errs,
		exclusions: exclusions,
		plants:     plants,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Summary counts one notification pass.
type Summary struct {
	Plants      int
	MailsSent   int
	MailsFailed int
}

// Run notifies every plant and then the auditors. The seen-file state for a
// plant advances only after all its mails went out, so a failed delivery
// reports the same files again on the next pass. Database metrics degrade to
// zero when their queries fail; the mails still go out.
func (s *Service) Run(ctx context.Context) Summary {
	if len(s.plants) == 0 {
		slog.Warn("no plants configured")
	}

	day := s.now()
	errorCount := s.countErrors(ctx, day)
	excluded := s.countExclusions(ctx, day)

	summary := Summary{Plants: len(s.plants)}
	rows := make([]auditRow, 0, len(s.plants))
	for _, plant := range s.plants {
		row, sent, failed := s.notifyPlant(plant, errorCount, excluded)
		rows = append(rows, row)
		summary.MailsSent += sent
		summary.MailsFailed += failed
	}

	sent, failed := s.notifyAuditors(day, rows)
	summary.MailsSent += sent
	summary.MailsFailed += failed

	slog.Info("notification pass complete",
		"plants", summary.Plants, "sent", summary.MailsSent, "failed", summary.MailsFailed)
	return summary
}

func (s *Service) notifyPlant(plant Plant, errorCount, excluded int64) (auditRow, int, int) {
	current, err := s.monitor.Scan(plant.Dir)
	if err != nil {
		slog.Error("failed to scan plant directory", "plant", plant.Name, "error", err)
	}
	fresh := s.monitor.NewFiles(plant.Dir, current)
	slog.Info("plant scanned", "plant", plant.Name, "new_files", len(fresh))

	names := make([]string, len(fresh))
	for i, file := range fresh {
		names[i] = filepath.Base(file)
	}

	status := statusFor(len(fresh) > 0, errorCount)
	row := auditRow{Status: status, Plant: plant.Name, Files: len(fresh), Errors: errorCount, Excluded: excluded}

	body, err := renderPlantMail(plantMail{
		Status:   status,
		Plant:    plant.Name,
		Files:    names,
		Errors:   errorCount,
		Excluded: excluded,
	})
	if err != nil {
		slog.Error("failed to render plant mail", "plant", plant.Name, "error", err)
		return row, 0, 0
	}

	if len(plant.Recipients) == 0 {
		slog.Warn("plant has no recipients", "plant", plant.Name)
		return row, 0, 0
	}

	sent, failed := s.deliver(plant.Recipients, fmt.Sprintf("Validation status: %s", plant.Name), body)
	if failed == 0 {
		if err := s.monitor.SaveState(plant.Dir, current); err != nil {
			slog.Error("failed to save monitor state", "plant", plant.Name, "error", err)
		}
	} else {
		slog.Warn("monitor state not saved, delivery incomplete", "plant", plant.Name)
	}
	return row, sent, failed
}

func (s *Service) notifyAuditors(day time.Time, rows []auditRow) (int, int) {
	if len(s.auditors) == 0 {
		slog.Warn("no auditor addresses configured")
		return 0, 0
	}

	body, err := renderAuditMail(auditMail{Date: day.Format("02/01/2006"), Rows: rows})
	if err != nil {
		slog.Error("failed to render audit mail", "error", err)
		return 0, 0
	}
	return s.deliver(s.auditors, "Daily plant audit report", body)
}

func (s *Service) deliver(recipients []string, subject, body string) (sent, failed int) {
	for _, to := range recipients {
		err := s.mailer.Send(to, subject, body)
		switch {
		case err == nil:
			slog.Info("mail sent", "to", to, "subject", subject)
			sent++
		case errors.Is(err, ErrNotConfigured):
			slog.Warn("mail skipped", "to", to, "error", err)
			failed++
		default:
			slog.Error("failed to send mail", "to", to, "error", err)
			failed++
		}
	}
	return sent, failed
}

func (s *Service) countErrors(ctx context.Context, day time.Time) int64 {
	count, err := s.errors.CountForDay(ctx, day)
	if err != nil {
		slog.Error("failed to count validation errors", "error", err)
		return 0
	}
	return count
}

func (s *Service) countExclusions(ctx context.Context, day time.Time) int64 {
	count, err := s.exclusions.CountLogsForDay(ctx, day)
	if err != nil {
		slog.Error("failed to count exclusion updates", "error", err)
		return 0
	}
	return count
}
