package controller

// FireAlarmRequest is the device webhook body. Sensor flags are optional and an
// absent flag means false.
type FireAlarmRequest struct {
	DevId  string `json:"devid"`
	Button *bool  `json:"button"`
	Smoke  *bool  `json:"smoke"`
	Fire   *bool  `json:"fire"`
	Time   string `json:"time"`
	RoomNo string `json:"roomNo"`
}

type AcknowledgeRequest struct {
	User string `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
