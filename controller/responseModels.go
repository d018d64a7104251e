package controller

import "firealarm/model"

type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type FireAlarmResponse struct {
	Success  bool   `json:"success"`
	Ack      bool   `json:"ack"`
	AckUser  string `json:"ackUser"`
	DateTime string `json:"dateTime"`
	Message  string `json:"message,omitempty"`
}

type AcknowledgeData struct {
	State  model.AlarmState `json:"state"`
	Ack    bool             `json:"ack"`
	RoomNo string           `json:"roomNo"`
	DevId  string           `json:"devId"`
}

type AcknowledgeResponse struct {
	BaseResponse
	Data AcknowledgeData `json:"data"`
}

type AlarmListResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Data    []model.AlarmRecord `json:"data"`
}

type AlarmResponse struct {
	Success bool              `json:"success"`
	Data    model.AlarmRecord `json:"data"`
}

type LoginResponse struct {
	BaseResponse
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}
