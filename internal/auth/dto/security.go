package dto

import (
	"time"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
)

type DeviceOutput struct {
	DeviceID  string    `json:"device_id"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	IPAddress string    `json:"ip_address"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Verified  bool      `json:"verified"`
}

type LoginAttemptOutput struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	IPAddress string    `json:"ip_address"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
}

type SecurityStatusOutput struct {
	AccountStatus  string               `json:"account_status"`
	TrustedDevices []DeviceOutput       `json:"trusted_devices"`
	LoginHistory   []LoginAttemptOutput `json:"login_history"`
}

func NewSecurityStatusOutput(account *domain.Account, history []domain.LoginAttempt) *SecurityStatusOutput {
	out := &SecurityStatusOutput{
		AccountStatus:  string(account.Status),
		TrustedDevices: make([]DeviceOutput, 0, len(account.TrustedDevices)),
		LoginHistory:   make([]LoginAttemptOutput, 0, len(history)),
	}
	for _, d := range account.TrustedDevices {
		out.TrustedDevices = append(out.TrustedDevices, DeviceOutput{
			DeviceID:  d.DeviceID,
			Browser:   d.Browser,
			OS:        d.OS,
			IPAddress: d.IPAddress,
			FirstSeen: d.FirstSeen,
			LastSeen:  d.LastSeen,
			Verified:  d.Verified,
		})
	}
	for _, a := range history {
		out.LoginHistory = append(out.LoginHistory, LoginAttemptOutput{
			Timestamp: a.AttemptTime,
			Success:   a.Successful,
			IPAddress: a.IPAddress,
			Browser:   a.Browser,
			OS:        a.OS,
		})
	}
	return out
}
