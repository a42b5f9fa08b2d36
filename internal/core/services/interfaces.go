package services

import (
	"context"
	"time"
)

// OTPMessage is what gets delivered to a user asking for a password reset
type OTPMessage struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

// OTPDispatcher delivers one-time codes out of band (mail gateway, SMS, ...)
type OTPDispatcher interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
