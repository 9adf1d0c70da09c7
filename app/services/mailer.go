package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/utils/format"
	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Notifier sends HTML mail. Mailer is the SMTP implementation.
type Notifier interface {
	SendHTMLEmail(to, subject, htmlBody string) error
}

type Mailer struct {
	config Config
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		config: cfg,
	}
}

func (m *Mailer) SendHTMLEmail(to, subject, htmlBody string) error {
	headers := [][2]string{
		{"From", m.config.From},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"UTF-8\""},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n" + htmlBody)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg.String())); err != nil {
		zap.L().Error("Mailer.SendHTMLEmail: failed to send", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send html email: %w", err)
	}

	return nil
}

// notifyAll mails every recipient. Failures are logged, never returned.
func notifyAll(n Notifier, recipients []string, subject, body string) {
	if n == nil {
		return
	}
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := n.SendHTMLEmail(to, subject, body); err != nil {
			zap.L().Warn("notifyAll: notification not delivered", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}
}

const emailLayout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        table { width: 100%%; border-collapse: collapse; }
        td, th { border-bottom: 1px solid #eee; padding: 4px; text-align: left; }
        .footer { font-size: 0.8em; color: #777; margin-top: 20px; border-top: 1px solid #ddd; padding-top: 10px; }
    </style>
</head>
<body>
    <div class="container">
        <h2>%s</h2>
        %s
        <div class="footer"><p>Klio</p></div>
    </div>
</body>
</html>`

func wrapEmail(title, content string) string {
	return fmt.Sprintf(emailLayout, html.EscapeString(title), html.EscapeString(title), content)
}

func BuildActivationEmailBody(link string, days int) string {
	return wrapEmail("Активация аккаунта", fmt.Sprintf(`
        <p>Чтобы завершить регистрацию, перейдите по ссылке:</p>
        <p><a href="%s">%s</a></p>
        <p>Ссылка действительна %d дн.</p>`,
		html.EscapeString(link), html.EscapeString(link), days))
}

func BuildPasswordResetEmailBody(link string, days int) string {
	return wrapEmail("Сброс пароля", fmt.Sprintf(`
        <p>Мы получили запрос на сброс пароля. Для установки нового пароля перейдите по ссылке:</p>
        <p><a href="%s">%s</a></p>
        <p>Ссылка действительна %d дн. Если вы не запрашивали сброс, просто проигнорируйте это письмо.</p>`,
		html.EscapeString(link), html.EscapeString(link), days))
}

func orderLinesTable(order *models.Order) string {
	var rows strings.Builder
	if order.Basket != nil {
		for _, line := range order.Basket.Products {
			rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(line.Product.Name), line.Quantity,
				format.Money(line.UnitPrice()), format.Money(line.Total())))
		}
	}
	return fmt.Sprintf(`
        <table>
            <tr><th>Товар</th><th>Кол-во</th><th>Цена</th><th>Сумма</th></tr>
            %s
        </table>
        <p>Товары: %s</p>
        <p>Доставка: %s</p>
        <p><b>Итого: %s</b></p>`,
		rows.String(), format.Money(order.Price.Decimal), format.Money(order.DeliveryPrice()), format.Money(order.Total()))
}

func BuildOrderAdminEmailBody(order *models.Order, adminURL string) string {
	return wrapEmail("Новый заказ", fmt.Sprintf(`
        <p>Заказ <a href="%s">%s</a> от %s (%s).</p>
        %s`,
		html.EscapeString(adminURL), html.EscapeString(order.ID),
		html.EscapeString(order.CustomerName()), html.EscapeString(order.CustomerEmail()),
		orderLinesTable(order)))
}

func BuildOrderCustomerEmailBody(order *models.Order) string {
	return wrapEmail("Ваш заказ принят", fmt.Sprintf(`
        <p>Здравствуйте, %s!</p>
        <p>Ваш заказ %s принят в обработку. Мы свяжемся с вами в ближайшее время.</p>
        %s`,
		html.EscapeString(order.CustomerName()), html.EscapeString(order.ID), orderLinesTable(order)))
}

func BuildSubscribeEmailBody(email string) string {
	return wrapEmail("Новая подписка", fmt.Sprintf(`<p>На рассылку подписался %s.</p>`, html.EscapeString(email)))
}

func BuildCallbackEmailBody(cb *models.CallbackInfo) string {
	return wrapEmail("Заказ обратного звонка", fmt.Sprintf(`
        <p>Имя: %s</p>
        <p>Телефон: %s</p>
        <p>Комментарий: %s</p>`,
		html.EscapeString(cb.Name), html.EscapeString(cb.Phone), html.EscapeString(cb.Comment)))
}
