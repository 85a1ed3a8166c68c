package service

import (
	"context"
	"log"
)

// Out-of-band reminder channels. Real SMTP/SMS gateways are deployment
// concerns; these implementations log the dispatch so the call sites and
// failure handling stay exercised end to end.

type LogEmailSender struct{}

func (LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	log.Printf("[EMAIL] to=%s subject=%q body=%q", to, subject, body)
	return nil
}

type LogSMSSender struct{}

func (LogSMSSender) SendSMS(_ context.Context, to, message string) error {
	log.Printf("[SMS] to=%s message=%q", to, message)
	return nil
}
