package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firealarm/model"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func telemetry(danger bool, at time.Time) Telemetry {
	return Telemetry{DeviceID: "DEV-1", Button: danger, EventTime: at}
}

func record(state model.AlarmState, armedAt time.Time) *model.AlarmRecord {
	rec := &model.AlarmRecord{ID: "r1", DeviceID: "DEV-1", RoomLabel: "101", State: state}
	if !armedAt.IsZero() {
		rec.ArmedAt = model.NewJsonTime(armedAt)
	}
	return rec
}

func TestApplyTelemetry_Table(t *testing.T) {
	delay := time.Minute
	cases := []struct {
		name    string
		current *model.AlarmRecord
		danger  bool
		now     time.Time
		created bool
		state   model.AlarmState
		outcome Outcome
	}{
		{"first post with danger", nil, true, t0, true, model.StateAlarm, OutcomeOpened},
		{"first post safe", nil, false, t0, true, model.StateSafe, OutcomeSeeded},
		{"alarm latches on danger", record(model.StateAlarm, time.Time{}), true, t0, false, model.StateAlarm, OutcomeLatched},
		{"alarm latches on safe", record(model.StateAlarm, time.Time{}), false, t0, false, model.StateAlarm, OutcomeLatched},
		{"safe inside window", record(model.StateSafe, t0), false, t0.Add(30 * time.Second), false, model.StateSafe, OutcomeCooling},
		{"safe danger inside window", record(model.StateSafe, t0), true, t0.Add(10 * time.Second), false, model.StateSafe, OutcomeCooling},
		{"safe promoted to armed", record(model.StateSafe, t0), false, t0.Add(delay), false, model.StateArmed, OutcomeArmed},
		{"safe elapsed with danger raises", record(model.StateSafe, t0), true, t0.Add(61 * time.Second), true, model.StateAlarm, OutcomeRaised},
		{"armed stays armed", record(model.StateArmed, t0), false, t0.Add(time.Hour), false, model.StateArmed, OutcomeArmed},
		{"armed with danger raises", record(model.StateArmed, t0), true, t0.Add(time.Hour), true, model.StateAlarm, OutcomeRaised},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := ApplyTelemetry(tc.current, telemetry(tc.danger, tc.now), tc.now, delay)
			require.NotNil(t, tr.Record)
			assert.Equal(t, tc.created, tr.Created)
			assert.Equal(t, tc.state, tr.Record.State)
			assert.Equal(t, tc.outcome, tr.Outcome)
			assert.NoError(t, CheckInvariants(withID(tr.Record)))
		})
	}
}

func withID(rec *model.AlarmRecord) *model.AlarmRecord {
	if rec.ID == "" {
		rec.ID = "new"
	}
	return rec
}

func TestApplyTelemetry_SeedAnchorsRearmTimer(t *testing.T) {
	tr := ApplyTelemetry(nil, telemetry(false, t0), t0, time.Minute)
	assert.True(t, tr.Record.ArmedAt.Time.Equal(t0))
	assert.False(t, tr.Record.Acknowledged)
}

func TestApplyTelemetry_NewAlarmLeavesCurrentUntouched(t *testing.T) {
	current := record(model.StateArmed, t0)
	current.Acknowledged = true
	current.AcknowledgedBy = "ops1"
	before := *current

	in := Telemetry{DeviceID: "DEV-1", Smoke: true, EventTime: t0.Add(time.Hour)}
	tr := ApplyTelemetry(current, in, t0.Add(time.Hour), time.Minute)

	require.True(t, tr.Created)
	assert.Equal(t, before, *current)
	assert.Equal(t, "101", tr.Record.RoomLabel)
	assert.True(t, tr.Record.Sensors.SmokeDetected)
	assert.False(t, tr.Record.Acknowledged)
	assert.Empty(t, tr.Record.AcknowledgedBy)
	assert.True(t, tr.Record.ArmedAt.IsZero())
}

func TestApplyTelemetry_InPlaceUpdateCopiesSensors(t *testing.T) {
	current := record(model.StateAlarm, time.Time{})
	in := Telemetry{DeviceID: "DEV-1", Fire: true, RoomLabel: "102", EventTime: t0.Add(time.Second)}

	tr := ApplyTelemetry(current, in, t0.Add(time.Second), time.Minute)

	assert.Equal(t, "r1", tr.Record.ID)
	assert.True(t, tr.Record.Sensors.FireDetected)
	assert.Equal(t, "102", tr.Record.RoomLabel)
	assert.True(t, tr.Record.EventTime.Time.Equal(t0.Add(time.Second)))
	assert.Equal(t, model.StateAlarm, current.State)
	assert.False(t, current.Sensors.FireDetected)
}

func TestCheckInvariants(t *testing.T) {
	acked := record(model.StateAlarm, time.Time{})
	acked.Acknowledged = true
	assert.Error(t, CheckInvariants(acked))

	armed := record(model.StateAlarm, t0)
	assert.Error(t, CheckInvariants(armed))

	unknown := record("BROKEN", time.Time{})
	assert.Error(t, CheckInvariants(unknown))

	assert.NoError(t, CheckInvariants(record(model.StateSafe, t0)))
}
