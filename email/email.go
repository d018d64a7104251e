package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"firealarm/config"
	"firealarm/logger"
	"firealarm/model"
)

// Sender delivers one rendered message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// AlarmMailer mails the configured recipients whenever an alarm is raised.
type AlarmMailer struct {
	cfg    config.Email
	sender Sender
	log    *logrus.Entry
}

func NewAlarmMailer(cfg config.Email) *AlarmMailer {
	return &AlarmMailer{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    logger.Log.WithFields(logrus.Fields{"func": "alarm_mail"}),
	}
}

func (m *AlarmMailer) Enabled() bool {
	return m.cfg.Host != "" && len(m.cfg.Recipients) > 0
}

func (m *AlarmMailer) AlarmRaised(_ context.Context, rec model.AlarmRecord) {
	if !m.Enabled() {
		return
	}
	mail := m.newMessage(AlarmSubject(rec), AlarmBody(rec))
	go func() {
		if err := m.sender.DialAndSend(mail); err != nil {
			m.log.WithFields(logrus.Fields{"device": rec.DeviceID, "record": rec.ID}).Error("Failed to send alarm mail: ", err)
		}
	}()
}

func (m *AlarmMailer) AlarmAcknowledged(context.Context, model.AlarmRecord) {}

func (m *AlarmMailer) newMessage(subject string, body string) *gomail.Message {
	mail := gomail.NewMessage()
	mail.SetAddressHeader("From", m.cfg.User, m.cfg.Name)
	mail.SetHeader("To", m.cfg.Recipients...)
	mail.SetHeader("Subject", subject)
	mail.SetBody("text/html", body)
	return mail
}

func AlarmSubject(rec model.AlarmRecord) string {
	if rec.RoomLabel != "" {
		return fmt.Sprintf("[FIRE ALARM] %s (room %s)", rec.DeviceID, rec.RoomLabel)
	}
	return fmt.Sprintf("[FIRE ALARM] %s", rec.DeviceID)
}

func AlarmBody(rec model.AlarmRecord) string {
	room := rec.RoomLabel
	if room == "" {
		room = "unknown"
	}
	return fmt.Sprintf(""+
		"<p>An alarm has been raised and is waiting for acknowledgement.</p>"+
		"<p>Device: <b>%s</b><br>Room: %s<br>Sensors: %s<br>Event time: %s</p>"+
		"<p>Alarm id: %s</p>",
		html.EscapeString(rec.DeviceID),
		html.EscapeString(room),
		triggeredSensors(rec.Sensors),
		rec.EventTime.String(),
		html.EscapeString(rec.ID))
}

func triggeredSensors(s model.SensorInputs) string {
	var names []string
	if s.ButtonPressed {
		names = append(names, "button")
	}
	if s.SmokeDetected {
		names = append(names, "smoke")
	}
	if s.FireDetected {
		names = append(names, "fire")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
