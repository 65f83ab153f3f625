package security

import (
	"time"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
)

// ClassifyDevice looks the fingerprint up in the account's trusted set.
// An unseen device id is inserted and trusted immediately (there is no
// separate confirmation step; the new-device notification is the signal).
// A known device is refreshed in place: last-seen, address and the
// browser/OS classes, which may legitimately drift across upgrades without
// changing the device identity. Devices are never removed here.
//
// The returned flag is true when the device was newly registered.
func ClassifyDevice(a *domain.Account, fp domain.Fingerprint, now time.Time) (*domain.Device, bool) {
	for i := range a.TrustedDevices {
		d := &a.TrustedDevices[i]
		if d.DeviceID == fp.DeviceID {
			d.LastSeen = now
			d.IPAddress = fp.IPAddress
			d.Browser = fp.Browser
			d.OS = fp.OS
			return d, false
		}
	}

	a.TrustedDevices = append(a.TrustedDevices, domain.Device{
		DeviceID:  fp.DeviceID,
		Browser:   fp.Browser,
		OS:        fp.OS,
		IPAddress: fp.IPAddress,
		FirstSeen: now,
		LastSeen:  now,
		Verified:  true,
	})
	return &a.TrustedDevices[len(a.TrustedDevices)-1], true
}
