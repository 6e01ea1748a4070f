package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/tableflow/events"
	"github.com/yeremiapane/tableflow/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type EventController struct {
	Hub *events.Hub
}

func NewEventController(hub *events.Hub) *EventController {
	return &EventController{Hub: hub}
}

// Pesan kontrol dari client: pilih audience yang mau diikuti.
type wsCommand struct {
	Action  string `json:"action"` // join_staff | leave_staff | join_table | leave_table
	TableID uint   `json:"table_id"`
}

// Handler -> endpoint WebSocket.
// Staff mengirim token di query param untuk boleh join audience "staff";
// customer cukup join room mejanya sendiri.
func (ec *EventController) Handler(c *gin.Context) {
	staffAllowed := false
	if token := c.Query("token"); token != "" {
		if claims, err := utils.ParseToken(token); err == nil {
			staffAllowed = claims.Role == "admin" || claims.Role == "staff"
		}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ec.Hub.Register(ws)
	defer ec.Hub.Unregister(ws)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			continue
		}

		switch cmd.Action {
		case "join_staff":
			if staffAllowed {
				ec.Hub.Join(ws, events.AudienceStaff)
			}
		case "leave_staff":
			ec.Hub.Leave(ws, events.AudienceStaff)
		case "join_table":
			if cmd.TableID != 0 {
				ec.Hub.Join(ws, events.TableAudience(cmd.TableID))
			}
		case "leave_table":
			if cmd.TableID != 0 {
				ec.Hub.Leave(ws, events.TableAudience(cmd.TableID))
			}
		}
	}
}
