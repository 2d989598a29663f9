package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"gogarantia/internal/domain"
	"gogarantia/internal/pkg/logger"
)

// Subject é o assunto do e-mail de confirmação de garantia.
const Subject = "Confirmação de Garantia - Etherna Joias"

const dateLayout = "02/01/2006"

//go:embed templates/*.html
var templatesFS embed.FS

var confirmationTemplate = template.Must(template.ParseFS(templatesFS, "templates/warranty_confirmation.html"))

// Config agrupa as configurações do servidor SMTP.
type Config struct {
	Host     string
	Port     int
	Secure   bool // SSL/TLS implícito (porta 465)
	Username string
	Password string
	From     string
	Timeout  time.Duration
	// Location é o fuso usado para as datas do e-mail. nil usa o fuso local do servidor.
	Location *time.Location
}

// SMTPMailer envia os e-mails de confirmação pelo servidor SMTP configurado.
// Cada envio abre e fecha sua própria conexão.
type SMTPMailer struct {
	cfg    Config
	logger logger.Logger
}

// New cria o SMTPMailer.
func New(cfg Config, log logger.Logger) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SMTPMailer{cfg: cfg, logger: log}
}

type confirmationView struct {
	ClientName      string
	ProductName     string
	ProductCode     string
	ProductPrice    string
	SaleDate        string
	WarrantyEndDate string
	ProductImage    string
}

// RenderConfirmation gera o HTML do e-mail de confirmação, com as datas no fuso loc.
func RenderConfirmation(c domain.WarrantyConfirmation, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	view := confirmationView{
		ClientName:      c.ClientName,
		ProductName:     c.ProductName,
		ProductCode:     c.ProductCode,
		ProductPrice:    FormatPrice(c.Price.StringFixed(2)),
		SaleDate:        c.SaleDate.In(loc).Format(dateLayout),
		WarrantyEndDate: c.WarrantyEndDate.In(loc).Format(dateLayout),
		ProductImage:    c.ProductImage,
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("falha ao renderizar template de confirmação: %w", err)
	}
	return buf.String(), nil
}

// FormatPrice troca o separador decimal para vírgula ("199.90" vira "199,90").
func FormatPrice(fixed string) string {
	return strings.Replace(fixed, ".", ",", 1)
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return mail.NewClient(m.cfg.Host, opts...)
}

// SendWarrantyConfirmation envia o e-mail de confirmação e retorna o Message-ID gerado.
// O envio é limitado por cfg.Timeout; o chamador decide se a falha é propagada.
func (m *SMTPMailer) SendWarrantyConfirmation(ctx context.Context, c domain.WarrantyConfirmation) (string, error) {
	body, err := RenderConfirmation(c, m.cfg.Location)
	if err != nil {
		return "", err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return "", fmt.Errorf("remetente inválido %q: %w", m.cfg.From, err)
	}
	if err := msg.To(c.ClientEmail); err != nil {
		return "", fmt.Errorf("destinatário inválido %q: %w", c.ClientEmail, err)
	}
	msg.Subject(Subject)
	msg.SetMessageID()
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := m.newClient()
	if err != nil {
		return "", fmt.Errorf("falha ao configurar cliente SMTP: %w", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctxTimeout, msg); err != nil {
		return "", fmt.Errorf("falha ao enviar e-mail para %s: %w", c.ClientEmail, err)
	}

	messageID := ""
	if ids := msg.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}
	m.logger.Info("E-mail de confirmação enviado.", map[string]interface{}{"to": c.ClientEmail, "message_id": messageID})
	return messageID, nil
}

// Verify testa a conexão com o servidor SMTP sem enviar mensagens.
func (m *SMTPMailer) Verify(ctx context.Context) error {
	client, err := m.newClient()
	if err != nil {
		return fmt.Errorf("falha ao configurar cliente SMTP: %w", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := client.DialWithContext(ctxTimeout); err != nil {
		return fmt.Errorf("falha ao conectar ao servidor de e-mail %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}
	return client.Close()
}
