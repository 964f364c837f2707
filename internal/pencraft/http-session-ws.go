package pencraft

import (
	"context"
	"log/slog"
	"time"

	"github.com/aisa-it/pencraft/internal/pencraft/sessions"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
)

const (
	pingPeriod = time.Second * 20
	wsTimeout  = time.Minute
)

// sessionEvents godoc
// @id sessionEvents
// @Summary Редактор: поток событий сессии
// @Description Вебсокет с событиями сессии: изменения документа, уведомления, статус автосохранения, сохранение и публикация. Первым сообщением отправляется состояние сессии.
// @Tags Editor
// @Param sessionId path string true "ID сессии"
// @Success 101 {object} sessions.Event "События сессии"
// @Failure 404 {object} apierrors.DefinedError "Сессия не найдена"
// @Router /api/sessions/{sessionId}/ws/ [get]
func (s *Services) sessionEvents(c echo.Context) error {
	sess := c.(SessionContext).Session

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Open websocket connection", "session", sess.ID(), "err", err)
		return nil
	}
	defer conn.CloseNow()

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Start read until close
	ctx := conn.CloseRead(context.Background())
	go pingLoop(ctx, conn)

	if err := writeEvent(ctx, conn, sess.Info()); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return nil
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				slog.Debug("Write session event", "session", sess.ID(), "type", ev.Type, "err", err)
				return nil
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, wsTimeout)
	defer cancel()
	if info, ok := v.(sessions.Info); ok {
		return wsjson.Write(ctx, conn, map[string]any{"type": "info", "info": info})
	}
	return wsjson.Write(ctx, conn, v)
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Debug("Ping to websocket failed", "err", err)
				conn.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
				return
			}
		}
	}
}
