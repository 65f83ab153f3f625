package realtime_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/realtime"
)

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	hub := realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		hub.Publish("acc-1", realtime.Event{Type: realtime.EventSecurityAlert, Message: "test"})
	})
}

func TestPublish_ConcurrentPublishers(t *testing.T) {
	hub := realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				hub.Publish("acc-1", realtime.Event{Type: realtime.EventSecurityUpdate})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestEventTypes(t *testing.T) {
	// Wire names are part of the client contract.
	assert.Equal(t, "SECURITY_UPDATE", realtime.EventSecurityUpdate)
	assert.Equal(t, "SECURITY_ALERT", realtime.EventSecurityAlert)
	assert.Equal(t, "LOGOUT_ALL", realtime.EventLogoutAll)
}
