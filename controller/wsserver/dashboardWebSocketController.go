package wsserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
	"firealarm/model"
)

// Hub fans committed alarm changes out to every open dashboard.
type Hub struct {
	conns    sync.Map
	upgrader *websocket.Upgrader
	log      *logrus.Entry
}

// NewHub accepts browser connections from allowedOrigins and from the server's own host.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: newUpgrader(allowedOrigins),
		log:      logger.Log.WithFields(logrus.Fields{"conn-type": "websocket", "func": "dashboard_hub"}),
	}
}

func (h *Hub) register(id string, conn *DashboardWsConn) {
	h.conns.Store(id, conn)
}

func (h *Hub) drop(id string) {
	h.conns.Delete(id)
}

func (h *Hub) Count() int {
	n := 0
	h.conns.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func (h *Hub) AlarmRaised(_ context.Context, rec model.AlarmRecord) {
	h.broadcast(AlarmMessage{Type: TypeAlarmRaised, Payload: rec})
}

func (h *Hub) AlarmAcknowledged(_ context.Context, rec model.AlarmRecord) {
	h.broadcast(AlarmMessage{Type: TypeAlarmAcknowledged, Payload: rec})
}

func (h *Hub) broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("Encoding push message error: ", err)
		return
	}
	h.conns.Range(func(key, value interface{}) bool {
		conn := value.(*DashboardWsConn)
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithFields(logrus.Fields{"conn": key}).Warn("Push failed: ", err)
		}
		return true
	})
}

// CloseAll closes every dashboard connection, used on shutdown.
func (h *Hub) CloseAll() {
	h.conns.Range(func(_, value interface{}) bool {
		value.(*DashboardWsConn).wsClose(true)
		return true
	})
}
