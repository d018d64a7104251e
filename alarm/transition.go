package alarm

import (
	"fmt"
	"time"

	"firealarm/model"
)

// Outcome names the row of the transition table a telemetry post landed on.
type Outcome string

const (
	OutcomeOpened  Outcome = "opened"
	OutcomeSeeded  Outcome = "seeded"
	OutcomeLatched Outcome = "latched"
	OutcomeCooling Outcome = "cooling"
	OutcomeArmed   Outcome = "armed"
	OutcomeRaised  Outcome = "raised"
)

// Transition is the result of applying telemetry. Record is either the updated
// current record or, when Created is set, a new record to insert.
type Transition struct {
	Record  *model.AlarmRecord
	Created bool
	Outcome Outcome
}

// ApplyTelemetry computes the next state of a device. current is nil for a device
// that has never posted. current is not modified when a new record is emitted.
func ApplyTelemetry(current *model.AlarmRecord, in Telemetry, now time.Time, armDelay time.Duration) Transition {
	if current == nil {
		rec := newRecord(in)
		if in.Danger() {
			rec.State = model.StateAlarm
			return Transition{Record: rec, Created: true, Outcome: OutcomeOpened}
		}
		rec.State = model.StateSafe
		rec.ArmedAt = model.NewJsonTime(now)
		return Transition{Record: rec, Created: true, Outcome: OutcomeSeeded}
	}

	next := *current
	switch current.State {
	case model.StateAlarm:
		applySensors(&next, in)
		return Transition{Record: &next, Outcome: OutcomeLatched}
	case model.StateSafe:
		if !rearmElapsed(current, now, armDelay) {
			applySensors(&next, in)
			return Transition{Record: &next, Outcome: OutcomeCooling}
		}
		next.State = model.StateArmed
	}

	if in.Danger() {
		rec := newRecord(in)
		rec.State = model.StateAlarm
		if rec.RoomLabel == "" {
			rec.RoomLabel = current.RoomLabel
		}
		return Transition{Record: rec, Created: true, Outcome: OutcomeRaised}
	}
	applySensors(&next, in)
	return Transition{Record: &next, Outcome: OutcomeArmed}
}

// A SAFE record without an anchor is treated as already armed.
func rearmElapsed(rec *model.AlarmRecord, now time.Time, armDelay time.Duration) bool {
	if rec.ArmedAt.IsZero() {
		return true
	}
	return now.Sub(rec.ArmedAt.Time) >= armDelay
}

func newRecord(in Telemetry) *model.AlarmRecord {
	rec := &model.AlarmRecord{
		DeviceID:  in.DeviceID,
		RoomLabel: in.RoomLabel,
	}
	applySensors(rec, in)
	return rec
}

func applySensors(rec *model.AlarmRecord, in Telemetry) {
	rec.Sensors = model.SensorInputs{
		ButtonPressed: in.Button,
		SmokeDetected: in.Smoke,
		FireDetected:  in.Fire,
	}
	rec.EventTime = model.NewJsonTime(in.EventTime)
	if in.RoomLabel != "" {
		rec.RoomLabel = in.RoomLabel
	}
}

// CheckInvariants reports a record that must never be written.
func CheckInvariants(rec *model.AlarmRecord) error {
	switch rec.State {
	case model.StateSafe, model.StateArmed, model.StateAlarm:
	default:
		return fmt.Errorf("record %s: unknown state %q", rec.ID, rec.State)
	}
	if rec.DeviceID == "" {
		return fmt.Errorf("record %s: empty device id", rec.ID)
	}
	if rec.State == model.StateAlarm && rec.Acknowledged {
		return fmt.Errorf("record %s: acknowledged while in ALARM", rec.ID)
	}
	if rec.State == model.StateAlarm && !rec.ArmedAt.IsZero() {
		return fmt.Errorf("record %s: armedAt set while in ALARM", rec.ID)
	}
	return nil
}
