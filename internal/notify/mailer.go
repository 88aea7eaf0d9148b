// Пакет notify — email-уведомления гражданам о событиях заявок.
// Отправка best-effort: ошибка SMTP логируется и не влияет
// на результат операции, породившей уведомление.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/Meetsu369/Dastaavej/internal/config"
)

// sendTimeout — предельное время одной SMTP-сессии.
const sendTimeout = 30 * time.Second

// Notifier — интерфейс отправки уведомлений.
type Notifier interface {
	// Notify отправляет письмо получателю. Не блокирует вызывающего
	// и не возвращает ошибку: доставка best-effort.
	Notify(email, subject, body string)
}

// Mailer — отправка уведомлений через SMTP.
type Mailer struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// NewMailer создаёт Mailer из конфигурации.
// Если SMTP-учётные данные не заданы, возвращает NoopNotifier:
// в development-окружении уведомления просто логируются.
func NewMailer(cfg *config.Config, logger *slog.Logger) (Notifier, error) {
	log := logger.With(slog.String("component", "notify"))

	if !cfg.MailEnabled() {
		log.Info("SMTP-учётные данные не заданы, уведомления отключены")
		return &NoopNotifier{logger: log}, nil
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &Mailer{
		client: client,
		from:   cfg.SMTPFrom,
		logger: log,
	}, nil
}

// Notify отправляет письмо в отдельной горутине.
// Ошибки отправки логируются уровнем WARN и не распространяются.
func (m *Mailer) Notify(email, subject, body string) {
	go func() {
		msg := mail.NewMsg()
		if err := msg.From(m.from); err != nil {
			m.logger.Warn("Некорректный адрес отправителя",
				slog.String("from", m.from),
				slog.String("error", err.Error()),
			)
			return
		}
		if err := msg.To(email); err != nil {
			m.logger.Warn("Некорректный адрес получателя",
				slog.String("to", email),
				slog.String("error", err.Error()),
			)
			return
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextPlain, body)

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
			m.logger.Warn("Ошибка отправки уведомления",
				slog.String("to", email),
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			return
		}

		m.logger.Debug("Уведомление отправлено",
			slog.String("to", email),
			slog.String("subject", subject),
		)
	}()
}

// NoopNotifier — заглушка: пишет уведомления в лог вместо SMTP.
type NoopNotifier struct {
	logger *slog.Logger
}

// Notify логирует уведомление без отправки.
func (n *NoopNotifier) Notify(email, subject, body string) {
	n.logger.Info("Уведомление (SMTP отключён)",
		slog.String("to", email),
		slog.String("subject", subject),
		slog.String("body", body),
	)
}
