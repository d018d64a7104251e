package wsserver

import (
	"bytes"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
)

type DashboardWsConn struct {
	*WsConnection
}

// Dashboards only listen. Anything they send besides the close text is ignored.
func (wsd *DashboardWsConn) wsReadProcLoop() {
	for {
		_, data, err := wsd.wsReadMessage()
		if err != nil {
			return
		}
		if bytes.Equal(data, clientClose) {
			wsd.log.Info("Websocket closed by client")
			wsd.wsClose(false)
			return
		}
	}
}

// Handler upgrades GET /ws/dashboard and registers the connection with the hub.
func (h *Hub) Handler(c *gin.Context) {
	log := logger.Log.WithFields(logrus.Fields{"conn-type": "websocket", "api": "dashboard", "addr": c.Request.RemoteAddr})
	wsSocket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Websocket error: ", err)
		return
	}
	id := uuid.NewV4().String()
	log = log.WithFields(logrus.Fields{"conn": id})
	log.Info("Websocket established")

	wsConn := &DashboardWsConn{newWsConnection(wsSocket, id, log, h.drop)}
	h.register(id, wsConn)
	wsSocket.SetPingHandler(wsConn.wsHeartbeatHandler)
	wsSocket.SetPongHandler(wsConn.wsPongHandler)

	go wsConn.wsReadLoop()
	go wsConn.wsWriteLoop()
	go wsConn.wsHeartbeat()
	go wsConn.wsReadProcLoop()
}
