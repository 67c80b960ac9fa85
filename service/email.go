package service

import (
	"fmt"
	"html"

	"fintrack/config"

	"gopkg.in/gomail.v2"
)

// Mailer 邮件发送接口
type Mailer interface {
	SendPasswordResetCode(toEmail, name, code string) error
}

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendPasswordResetCode 发送密码重置验证码
func (s *EmailService) SendPasswordResetCode(toEmail, name, code string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("email delivery is disabled, set FINTRACK_EMAIL_ENABLED=true")
	}

	subject := "[FinTrack] Password reset code"
	body := s.generateResetCodeBody(name, code)

	return s.sendEmail(toEmail, subject, body)
}

// generateResetCodeBody 生成验证码邮件内容
func (s *EmailService) generateResetCodeBody(name, code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .code { font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #1d4ed8; text-align: center; margin: 24px 0; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>FinTrack</h1>
        </div>
        <div class="content">
            <p>Hello <strong>%s</strong>,</p>
            <p>We received a request to reset your password. Use the code below to choose a new one:</p>
            <div class="code">%s</div>
            <div class="warning">
                <p>This code expires in <strong>10 minutes</strong>.</p>
                <p>If you did not request a password reset, you can ignore this email.</p>
            </div>
        </div>
        <div class="footer">
            <p>This message was sent automatically, please do not reply.</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(name), code)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
