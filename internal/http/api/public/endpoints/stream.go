package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/tracking"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveStreamModule pushes every new snapshot of one bus over a websocket. The cached
// snapshot, if any, is sent first.
func LiveStreamModule(tracker *tracking.Tracker) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/live/ws/:bus_number", func(ctx *gin.Context) {
			number, err := strconv.Atoi(ctx.Param("bus_number"))
			if err != nil || number <= 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus_number"})
				return
			}
			streamBus(ctx, tracker, number)
		})
	})
}

func streamBus(ctx *gin.Context, tracker *tracking.Tracker, busNumber int) {
	// subscribe before reading the cache so no report falls between the two
	updates, cancel := tracker.Subscribe(busNumber)
	defer cancel()

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.With().Int("bus_number", busNumber).Str("remote", ctx.ClientIP()).Logger()
	logger.Debug().Msg("live stream connected")
	defer logger.Debug().Msg("live stream disconnected")

	if snapshot, err := tracker.Latest(ctx.Request.Context(), busNumber); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
	} else if !errors.Is(err, tracking.ErrNoSnapshot) {
		logger.Error().Err(err).Msg("could not read live snapshot")
	}

	// the reader only services pongs and notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
