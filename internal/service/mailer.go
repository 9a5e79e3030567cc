package service

import (
	"context"
	"datalingua/internal/logger"
)

// Mailer delivers verification codes to researchers
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the log instead of sending mail
type LogMailer struct{}

func (LogMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	logger.WithFields(logger.Fields{"email": email, "code": code}).Info("verification code issued")
	return nil
}
