package service

import (
	"testing"

	"fintrack/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateResetCodeBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateResetCodeBody("Ana", "482913")
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "482913")
	assert.Contains(t, body, "10 minutes")
}

func TestGenerateResetCodeBody_EscapesName(t *testing.T) {
	s := newTestEmailService()
	body := s.generateResetCodeBody("<script>", "000000")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestSendPasswordResetCode_Disabled(t *testing.T) {
	s := newTestEmailService()
	err := s.SendPasswordResetCode("ana@example.com", "Ana", "123456")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
