// Command notify mails each plant's contacts about newly delivered files
// and sends the auditors a cross-plant summary.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/notify"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("notify", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	mailer := &notify.SMTPMailer{
		Server:   cfg.Notify.SMTP.Server,
		Port:     cfg.Notify.SMTP.Port,
		User:     cfg.Notify.SMTP.User,
		Password: cfg.Notify.SMTP.Password,
	}
	if !mailer.Configured() {
		slog.Warn("smtp relay not configured, mails will not be sent")
	}

	plants := make([]notify.Plant, len(cfg.Notify.Plants))
	for i, plant := range cfg.Notify.Plants {
		plants[i] = notify.Plant{Name: plant.Name, Dir: plant.Dir, Recipients: plant.Recipients}
	}

	service := notify.NewService(
		notify.NewMonitor(cfg.Notify.StateFile),
		mailer,
		repository.NewValidationErrorRepository(conn.Pool),
		repository.NewExclusionRepository(conn.Pool),
		plants,
		notify.WithAuditors(cfg.Notify.Auditors))

	summary := service.Run(ctx)
	slog.Info("notifications finished",
		"plants", summary.Plants, "sent", summary.MailsSent, "failed", summary.MailsFailed)
	return nil
}
