package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"firealarm/alarm"
	"firealarm/authentication"
	"firealarm/logger"
	"firealarm/metrics"
	"firealarm/model"
)

type AlarmController struct {
	service *alarm.Service
}

func NewAlarmController(service *alarm.Service) *AlarmController {
	return &AlarmController{service: service}
}

// FireAlarmHandler takes device telemetry. It answers 200 for every well formed
// post, whatever state the device is in.
func (ac *AlarmController) FireAlarmHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "fire_alarm", "addr": c.Request.RemoteAddr})
	var data FireAlarmRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		log.Info("Decoding body error: ", err)
		metrics.ObserveTelemetry("invalid")
		c.JSON(http.StatusBadRequest, InvalidPayloadResponse)
		return
	}
	if data.DevId == "" || data.Time == "" {
		log.Info("Missing devid or time")
		metrics.ObserveTelemetry("invalid")
		c.JSON(http.StatusBadRequest, InvalidPayloadResponse)
		return
	}
	eventTime, err := alarm.ParseEventTime(data.Time)
	if err != nil {
		log.Info("Invalid time: ", data.Time)
		metrics.ObserveTelemetry("invalid")
		c.JSON(http.StatusBadRequest, InvalidTimeResponse)
		return
	}

	res, err := ac.service.Ingest(c.Request.Context(), alarm.Telemetry{
		DeviceID:  data.DevId,
		RoomLabel: data.RoomNo,
		Button:    flag(data.Button),
		Smoke:     flag(data.Smoke),
		Fire:      flag(data.Fire),
		EventTime: eventTime,
	})
	if err != nil {
		if alarm.IsValidation(err) {
			metrics.ObserveTelemetry("invalid")
		} else {
			metrics.ObserveTelemetry("error")
		}
		respondError(c, log, err)
		return
	}
	metrics.ObserveTelemetry(string(res.Outcome))
	c.JSON(http.StatusOK, FireAlarmResponse{
		Success:  true,
		Ack:      res.Ack,
		AckUser:  res.AckUser,
		DateTime: res.Record.EventTime.String(),
		Message:  res.Message,
	})
	log.WithFields(logrus.Fields{"device": data.DevId, "outcome": res.Outcome}).Debug("Telemetry replied")
}

func (ac *AlarmController) AcknowledgeHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "alarm_ack", "addr": c.Request.RemoteAddr})
	var data AcknowledgeRequest
	if err := c.ShouldBindJSON(&data); err != nil && !errors.Is(err, io.EOF) {
		log.Info("Decoding body error: ", err)
		c.JSON(http.StatusBadRequest, ParameterErrorResponse)
		return
	}
	// an authenticated operator cannot acknowledge in someone else's name
	actor := data.User
	if claims := authentication.CurrentClaims(c); claims != nil {
		actor = claims.Username
	}

	rec, err := ac.service.Acknowledge(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, AcknowledgeResponse{
		BaseResponse: BaseResponse{Success: true, Message: "Alarm acknowledged, system SAFE"},
		Data: AcknowledgeData{
			State:  rec.State,
			Ack:    rec.Acknowledged,
			RoomNo: rec.RoomLabel,
			DevId:  rec.DeviceID,
		},
	})
	log.WithFields(logrus.Fields{"record": rec.ID, "actor": rec.AcknowledgedBy}).Info("Alarm acknowledged")
}

func (ac *AlarmController) ListAlarmsHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "alarm_list", "addr": c.Request.RemoteAddr})
	recs, err := ac.service.List(c.Request.Context())
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, newAlarmListResponse(recs))
}

func (ac *AlarmController) DeviceAlarmsHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "alarm_device_list", "addr": c.Request.RemoteAddr})
	recs, err := ac.service.ListByDevice(c.Request.Context(), c.Param("devId"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, newAlarmListResponse(recs))
}

func (ac *AlarmController) GetAlarmHandler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "http", "api": "alarm_get", "addr": c.Request.RemoteAddr})
	rec, err := ac.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, AlarmResponse{Success: true, Data: *rec})
}

// respondError maps the alarm error taxonomy to a status. Internal details stay in the log.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	var verr *alarm.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Info("Validation error: ", err)
		c.JSON(http.StatusBadRequest, BaseResponse{Success: false, Message: verr.Error()})
	case errors.Is(err, alarm.ErrNotFound):
		log.Info("Alarm record not found: ", c.Param("id"))
		c.JSON(http.StatusNotFound, AlarmNotFoundResponse)
	case errors.Is(err, alarm.ErrInvalidTransition):
		log.Info("Alarm not active: ", c.Param("id"))
		c.JSON(http.StatusBadRequest, AlarmNotActiveResponse)
	default:
		log.Error("Alarm service failure: ", err)
		c.JSON(http.StatusInternalServerError, InternalErrorResponse)
	}
}

func newAlarmListResponse(recs []model.AlarmRecord) AlarmListResponse {
	if recs == nil {
		recs = []model.AlarmRecord{}
	}
	return AlarmListResponse{Success: true, Count: len(recs), Data: recs}
}

func flag(b *bool) bool {
	return b != nil && *b
}
