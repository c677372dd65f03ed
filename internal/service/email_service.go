package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/arstudios/protend/internal/otp"
)

// ==============================================
// EMAIL SERVICE
// ==============================================

// ErrMailerDisabled is returned without any network call when outbound
// credentials are not configured.
var ErrMailerDisabled = errors.New("email channel is not configured")

// smtpTimeout bounds the dial and the whole SMTP conversation so a stuck
// mail server cannot hang a login request.
const smtpTimeout = 10 * time.Second

type EmailService struct {
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	fromEmail    string
	tlsConfig    *tls.Config
	logger       *zap.Logger
}

func NewEmailService(host string, port int, username, password, from string, logger *zap.Logger) *EmailService {
	return &EmailService{
		smtpHost:     host,
		smtpPort:     port,
		smtpUsername: username,
		smtpPassword: password,
		fromEmail:    from,
		tlsConfig:    &tls.Config{ServerName: host},
		logger:       logger,
	}
}

// Enabled reports whether outbound credentials are configured
func (s *EmailService) Enabled() bool {
	return s.smtpUsername != "" && s.smtpPassword != ""
}

// ==============================================
// SEND OTP
// ==============================================

// SendOTP delivers a verification code. It satisfies otp.Sender: it never
// panics, and a missing configuration fails fast instead of dialing.
func (s *EmailService) SendOTP(ctx context.Context, email, code string, purpose otp.Purpose) error {
	if !s.Enabled() {
		return ErrMailerDisabled
	}

	subject, body := otpEmailContent(code, purpose)

	if err := s.send(ctx, email, subject, body); err != nil {
		s.logger.Error("failed to send OTP email",
			zap.String("purpose", string(purpose)),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// send runs one SMTP conversation: dial with timeout, STARTTLS, PLAIN auth,
// single recipient, HTML body.
func (s *EmailService) send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.smtpHost, s.smtpPort)

	dialer := &net.Dialer{Timeout: smtpTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// Overall deadline covers the whole conversation, not just the dial.
	_ = conn.SetDeadline(time.Now().Add(smtpTimeout))

	client, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(s.tlsConfig); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\n", s.fromEmail) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return nil
}

// ==============================================
// EMAIL TEMPLATES
// ==============================================

func otpEmailContent(code string, purpose otp.Purpose) (subject, body string) {
	switch purpose {
	case otp.PurposeLogin:
		subject = "Your Login Verification Code - AR Studios"
		body = fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <h2 style="color: #6366f1; margin: 0;">AR Studios</h2>
      <p style="color: #666; margin: 5px 0;">Project Management System</p>
    </div>
    <div style="background: #f8fafc; padding: 30px; border-radius: 12px; text-align: center;">
      <h3 style="color: #1e293b; margin: 0 0 15px;">Your Login Verification Code</h3>
      <div style="background: white; padding: 20px; border-radius: 8px; display: inline-block; border: 2px solid #6366f1;">
        <span style="font-size: 32px; font-weight: bold; color: #6366f1; letter-spacing: 4px;">%s</span>
      </div>
      <p style="color: #64748b; margin: 15px 0 0; font-size: 14px;">This code will expire in 60 seconds</p>
    </div>
    <div style="color: #64748b; font-size: 14px; margin-top: 30px;">
      <p>If you didn't request this code, please ignore this email.</p>
      <p>For security reasons, this code can only be used once.</p>
    </div>
  </div>
</body>
</html>`, code)

	default: // signup
		subject = "Your Signup Verification Code - AR Studios"
		body = fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <h2 style="color: #6366f1; margin: 0;">AR Studios</h2>
      <p style="color: #666; margin: 5px 0;">Project Management System</p>
    </div>
    <div style="background: #f8fafc; padding: 30px; border-radius: 12px; text-align: center;">
      <h3 style="color: #1e293b; margin: 0 0 15px;">Welcome! Verify Your Email</h3>
      <p style="color: #64748b; margin: 0 0 20px;">Please use the code below to complete your registration:</p>
      <div style="background: white; padding: 20px; border-radius: 8px; display: inline-block; border: 2px solid #6366f1;">
        <span style="font-size: 32px; font-weight: bold; color: #6366f1; letter-spacing: 4px;">%s</span>
      </div>
      <p style="color: #64748b; margin: 15px 0 0; font-size: 14px;">This code will expire in 60 seconds</p>
    </div>
    <div style="color: #64748b; font-size: 14px; margin-top: 30px;">
      <p>Thank you for joining AR Studios!</p>
      <p>If you didn't create an account, please ignore this email.</p>
    </div>
  </div>
</body>
</html>`, code)
	}

	return subject, body
}
