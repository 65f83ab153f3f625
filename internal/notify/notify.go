// Package notify delivers security emails. Delivery is strictly best-effort:
// callers fire it from the request path and swallow any error, so a mail
// outage can never fail a login.
package notify

import "context"

type Kind string

const (
	KindAccountLocked Kind = "ACCOUNT_LOCKED"
	KindNewDevice     Kind = "NEW_DEVICE"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// AccountLockedMessage matches the wording users have seen historically.
func AccountLockedMessage(email string) Message {
	return Message{
		To:      email,
		Subject: "Security Alert: Account Locked",
		Body:    "Your account has been locked for 10 minutes due to 5 failed login attempts within 2 minutes.",
	}
}

func NewDeviceMessage(email, browser, os, ip string) Message {
	return Message{
		To:      email,
		Subject: "Security Alert: New Device Login",
		Body:    "A new login was detected on your account from " + browser + " on " + os + " (IP: " + ip + ").",
	}
}
