package alarm

import (
	"strings"
	"time"
)

// maxLabelLength matches the column sizes of device and room labels.
const maxLabelLength = 128

// Telemetry is one decoded webhook post from a device.
type Telemetry struct {
	DeviceID  string
	RoomLabel string
	Button    bool
	Smoke     bool
	Fire      bool
	EventTime time.Time
}

func (t Telemetry) Danger() bool {
	return t.Button || t.Smoke || t.Fire
}

func (t Telemetry) Validate() error {
	if strings.TrimSpace(t.DeviceID) == "" {
		return &ValidationError{Field: "devid", Reason: "required"}
	}
	if len(t.DeviceID) > maxLabelLength {
		return &ValidationError{Field: "devid", Reason: "too long"}
	}
	if len(t.RoomLabel) > maxLabelLength {
		return &ValidationError{Field: "roomNo", Reason: "too long"}
	}
	if t.EventTime.IsZero() {
		return &ValidationError{Field: "time", Reason: "required"}
	}
	return nil
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseEventTime accepts device clocks in "YYYY-MM-DD HH:mm:ss" form as well as
// ISO-8601. Values without a zone are read as UTC.
func ParseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "time", Reason: "required"}
	}
	s = strings.Replace(s, " ", "T", 1)
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "time", Reason: "invalid time format"}
}
