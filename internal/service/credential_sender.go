package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/guardforce-api/pkg/config"
	"github.com/noah-isme/guardforce-api/pkg/jobs"
)

// CredentialsMessage is what a newly provisioned employee receives.
type CredentialsMessage struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// CredentialSender delivers generated credentials out of band.
type CredentialSender interface {
	SendCredentials(ctx context.Context, msg CredentialsMessage) error
}

// CredentialSenderFunc adapts a function to CredentialSender.
type CredentialSenderFunc func(ctx context.Context, msg CredentialsMessage) error

// SendCredentials implements CredentialSender.
func (f CredentialSenderFunc) SendCredentials(ctx context.Context, msg CredentialsMessage) error {
	return f(ctx, msg)
}

// NewCredentialSender picks the provider named by cfg.Provider. Unknown or
// incomplete configurations fall back to the log provider.
func NewCredentialSender(cfg config.MailConfig, logger *zap.Logger) CredentialSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case config.MailProviderNoop:
		return noopSender{}
	case config.MailProviderSMTP:
		if cfg.SMTPHost == "" {
			break
		}
		return &smtpSender{
			addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
			host: cfg.SMTPHost,
			user: cfg.SMTPUsername,
			pass: cfg.SMTPPassword,
			from: cfg.From,
		}
	case config.MailProviderWebhook:
		if cfg.WebhookURL == "" {
			break
		}
		return &webhookSender{url: cfg.WebhookURL, token: cfg.WebhookToken, client: &http.Client{Timeout: 5 * time.Second}}
	}
	return logSender{logger: logger}
}

type logSender struct {
	logger *zap.Logger
}

func (s logSender) SendCredentials(_ context.Context, msg CredentialsMessage) error {
	s.logger.Info("credentials issued", zap.String("email", msg.Email), zap.String("username", msg.Username))
	return nil
}

type noopSender struct{}

func (noopSender) SendCredentials(context.Context, CredentialsMessage) error { return nil }

var credentialsTemplate = template.Must(template.New("credentials").Parse(`From: {{.From}}
To: {{.To}}
Subject: Your GuardForce account
MIME-Version: 1.0
Content-Type: text/plain; charset=UTF-8

Hello {{.FirstName}},

Your account has been approved.

Username: {{.Username}}
Temporary password: {{.Password}}

Please sign in and change your password.
`))

const smtpTimeout = 10 * time.Second

type smtpSendFunc func(ctx context.Context, addr, host string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpSender struct {
	addr    string
	host    string
	user    string
	pass    string
	from    string
	timeout time.Duration
	send    smtpSendFunc
}

func (s *smtpSender) SendCredentials(ctx context.Context, msg CredentialsMessage) error {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = smtpTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return err
	}
	send := s.send
	if send == nil {
		send = sendMail
	}
	var body bytes.Buffer
	if err := credentialsTemplate.Execute(&body, map[string]string{
		"From":      s.from,
		"To":        msg.Email,
		"FirstName": msg.FirstName,
		"Username":  msg.Username,
		"Password":  msg.Password,
	}); err != nil {
		return fmt.Errorf("render credentials email: %w", err)
	}
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	payload := bytes.ReplaceAll(body.Bytes(), []byte("\n"), []byte("\r\n"))
	if err := send(ctx, s.addr, s.host, auth, s.from, []string{msg.Email}, payload); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// sendMail is smtp.SendMail bound to ctx: the dial and every exchange share
// the context deadline, and cancellation closes the connection.
func sendMail(ctx context.Context, addr, host string, a smtp.Auth, from string, to []string, msg []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

type webhookSender struct {
	url    string
	token  string
	client *http.Client
}

func (s *webhookSender) SendCredentials(ctx context.Context, msg CredentialsMessage) error {
	body, err := json.Marshal(map[string]interface{}{
		"type":      "credentials",
		"recipient": msg.Email,
		"payload":   msg,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook rejected credentials: %s", strings.TrimSpace(resp.Status))
	}
	return nil
}

// CredentialRedeliveryHandler returns a jobs handler that resends queued credentials.
func CredentialRedeliveryHandler(sender CredentialSender, metrics *MetricsService) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(CredentialsMessage)
		if !ok {
			return errInvalidCredentialJob
		}
		err := sender.SendCredentials(ctx, msg)
		metrics.CredentialDelivery(err == nil)
		return err
	}
}

var errInvalidCredentialJob = errors.New("credential job payload is not a CredentialsMessage")
