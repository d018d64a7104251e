package wsserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"firealarm/logger"
)

type DropWsConnItemFunc func(id string)

type WsData struct {
	messageType int
	data        []byte
}

type WsConnection struct {
	wsSocket  *websocket.Conn
	readChan  chan *WsData
	writeChan chan *WsData
	hbChan    chan string
	id        string

	log       *logrus.Entry
	mutex     sync.Mutex
	isClosed  bool
	closeChan chan byte

	dropConnItemFunc DropWsConnItemFunc
}

var (
	serverClose = []byte("server close")
	clientClose = []byte("client close")

	ErrConnClosed = errors.New("websocket closed")
)

const (
	heartBeatTimeout = 30 * time.Second
	pingPeriod       = 10 * time.Second
	writeWait        = time.Second
)

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
}

// checkOrigin admits non-browser clients, same-host pages and the configured
// dashboard origins.
func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		log := logger.Log.WithFields(logrus.Fields{"conn-type": "websocket", "addr": r.RemoteAddr})
		if r.Method != http.MethodGet {
			log.Errorf("Request method is not GET, but %q", r.Method)
			return false
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}
		log.Warnf("Origin %q is not allowed", origin)
		return false
	}
}

func newWsConnection(wsSocket *websocket.Conn, id string, log *logrus.Entry, drop DropWsConnItemFunc) *WsConnection {
	return &WsConnection{
		wsSocket:         wsSocket,
		readChan:         make(chan *WsData, 100),
		writeChan:        make(chan *WsData, 1000),
		hbChan:           make(chan string, 100),
		closeChan:        make(chan byte),
		id:               id,
		log:              log,
		dropConnItemFunc: drop,
	}
}

func (wsConn *WsConnection) wsReadLoop() {
	for {
		msgType, data, err := wsConn.wsSocket.ReadMessage()
		if err != nil {
			wsConn.wsClose(false)
			return
		}
		msg := &WsData{
			msgType,
			data,
		}
		select {
		case wsConn.readChan <- msg:
		case <-wsConn.closeChan:
			return
		}
	}
}

func (wsConn *WsConnection) wsWriteLoop() {
	for {
		select {
		case msg := <-wsConn.writeChan:
			_ = wsConn.wsSocket.SetWriteDeadline(time.Now().Add(writeWait))
			err := wsConn.wsSocket.WriteMessage(msg.messageType, msg.data)
			if err != nil {
				wsConn.wsClose(false)
				return
			}
		case <-wsConn.closeChan:
			return
		}
	}
}

func (wsConn *WsConnection) wsReadMessage() (int, []byte, error) {
	select {
	case msg := <-wsConn.readChan:
		return msg.messageType, msg.data, nil
	case <-wsConn.closeChan:
	}
	return 0, nil, ErrConnClosed
}

// WriteMessage queues a frame. A full queue drops the frame rather than block the caller.
func (wsConn *WsConnection) WriteMessage(messageType int, data []byte) error {
	select {
	case <-wsConn.closeChan:
		return ErrConnClosed
	default:
	}
	select {
	case wsConn.writeChan <- &WsData{messageType: messageType, data: data}:
		return nil
	case <-wsConn.closeChan:
		return ErrConnClosed
	default:
		return errors.New("websocket write queue full")
	}
}

func (wsConn *WsConnection) beat(message string) {
	select {
	case wsConn.hbChan <- message:
	default:
	}
}

func (wsConn *WsConnection) wsHeartbeatHandler(message string) error {
	wsConn.beat(message)
	err := wsConn.wsSocket.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(writeWait))
	if err != nil {
		wsConn.log.Error("Heartbeat error: ", err)
		return err
	}
	return nil
}

func (wsConn *WsConnection) wsPongHandler(message string) error {
	wsConn.beat(message)
	return nil
}

// wsHeartbeat pings the peer and closes the connection when neither a ping nor
// a pong arrived within heartBeatTimeout.
func (wsConn *WsConnection) wsHeartbeat() {
	timer := time.NewTimer(heartBeatTimeout)
	defer timer.Stop()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-wsConn.hbChan:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(heartBeatTimeout)
		case <-ticker.C:
			err := wsConn.wsSocket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				wsConn.wsClose(false)
				return
			}
		case <-timer.C:
			wsConn.log.Warn("Heartbeat timeout")
			wsConn.wsClose(true)
			return
		case <-wsConn.closeChan:
			return
		}
	}
}

func (wsConn *WsConnection) wsClose(sendClose bool) {
	wsConn.mutex.Lock()
	defer wsConn.mutex.Unlock()
	if wsConn.isClosed {
		return
	}
	wsConn.isClosed = true
	if sendClose {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(serverClose))
		_ = wsConn.wsSocket.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
	}
	close(wsConn.closeChan)
	_ = wsConn.wsSocket.Close()
	wsConn.dropConnItemFunc(wsConn.id)
	wsConn.log.Info("Websocket closed")
}
