// Package fingerprint derives a coarse, stable device identity from request
// metadata. The inputs are unauthenticated and client-controlled; nothing here
// is an authentication credential, only a tracking key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
)

const Unknown = "Unknown"

var browserKeywords = []string{"Chrome", "Firefox", "Safari", "Edge", "Opera"}

var osKeywords = []string{"Windows", "Mac", "Linux", "Android", "iOS"}

// Extract computes a fingerprint from the raw user agent and the network
// source address. It never fails: missing inputs fall back to sentinel values
// and unclassifiable agents yield "Unknown" classes. The device id is a
// SHA-256 over the (agent, address) pair, so it is stable for the same
// client/network combination without any cookie or storage dependency.
func Extract(userAgent, ipAddress string) domain.Fingerprint {
	if userAgent == "" {
		userAgent = "unknown"
	}
	if ipAddress == "" {
		ipAddress = "unknown"
	}

	sum := sha256.Sum256([]byte(userAgent + "-" + ipAddress))

	return domain.Fingerprint{
		DeviceID:  hex.EncodeToString(sum[:]),
		Browser:   classify(userAgent, browserKeywords),
		OS:        classify(userAgent, osKeywords),
		IPAddress: ipAddress,
	}
}

func classify(agent string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(agent, kw) {
			return kw
		}
	}
	return Unknown
}
