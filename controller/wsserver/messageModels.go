package wsserver

import (
	"firealarm/model"
)

const (
	TypeAlarmRaised       = 1
	TypeAlarmAcknowledged = 2
)

type AlarmMessage struct {
	Type    int               `json:"type"`
	Payload model.AlarmRecord `json:"payload"`
}
