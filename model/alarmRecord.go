package model

type AlarmState string

const (
	StateSafe  AlarmState = "SAFE"
	StateArmed AlarmState = "ARMED"
	StateAlarm AlarmState = "ALARM"
)

type SensorInputs struct {
	ButtonPressed bool `json:"buttonPressed" gorm:"default:false"`
	SmokeDetected bool `json:"smokeDetected" gorm:"default:false"`
	FireDetected  bool `json:"fireDetected"  gorm:"default:false"`
}

func (s SensorInputs) Danger() bool {
	return s.ButtonPressed || s.SmokeDetected || s.FireDetected
}

// AlarmRecord is one alarm lifecycle event of a device. The newest record of a
// device is its current record.
type AlarmRecord struct {
	ID             string       `json:"id"             gorm:"primaryKey;size:36"`
	DeviceID       string       `json:"deviceId"       gorm:"size:128;not null;index:idx_device_created,priority:1"`
	RoomLabel      string       `json:"roomLabel"      gorm:"size:128"`
	Sensors        SensorInputs `json:"sensorInputs"   gorm:"embedded"`
	State          AlarmState   `json:"state"          gorm:"size:8;not null"`
	Acknowledged   bool         `json:"acknowledged"   gorm:"default:false"`
	AcknowledgedBy string       `json:"acknowledgedBy" gorm:"size:128"`
	AcknowledgedAt JsonTime     `json:"acknowledgedAt" gorm:"type:datetime(3)"`
	EventTime      JsonTime     `json:"eventTime"      gorm:"type:datetime(3);not null"`
	ArmedAt        JsonTime     `json:"armedAt"        gorm:"type:datetime(3)"`
	CreatedAt      JsonTime     `json:"createdAt"      gorm:"type:datetime(3);not null;index:idx_device_created,priority:2"`
	UpdatedAt      JsonTime     `json:"updatedAt"      gorm:"type:datetime(3);not null"`
}

func (AlarmRecord) TableName() string {
	return "alarm_records"
}
