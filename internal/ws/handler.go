package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/classwatch/classwatch-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; identity is checked by the in-band handshake.
		return true
	},
}

// readAuthEnvelope waits for the handshake frame. Anything else, or silence
// past the deadline, fails authentication.
func readAuthEnvelope(conn *websocket.Conn) (Envelope, error) {
	conn.SetReadDeadline(time.Now().Add(authWait))
	defer conn.SetReadDeadline(time.Time{})

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type != TypeAuth {
		return Envelope{}, ErrAuthenticationFailed
	}
	return env, nil
}

func rejectConn(conn *websocket.Conn, reason string) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(writeWait))
	conn.Close()
}

// DeviceHandler upgrades a monitored device's channel. The first message must
// be {type:"auth", role:"student"|"device", deviceId, schoolId} matching a
// registered device.
func DeviceHandler(db *gorm.DB, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		env, err := readAuthEnvelope(conn)
		if err != nil {
			rejectConn(conn, "auth required")
			return
		}
		role := strings.ToLower(env.Role)
		if (role != "student" && role != "device") || env.DeviceID == "" || env.SchoolID == "" {
			rejectConn(conn, "invalid device identity")
			return
		}

		var device models.Device
		if err := db.Where("device_id = ? AND school_id = ?", env.DeviceID, env.SchoolID).First(&device).Error; err != nil {
			log.Printf("ws: unknown device %s (school %s)", env.DeviceID, env.SchoolID)
			rejectConn(conn, "unknown device")
			return
		}

		client := newClient(hub, conn, Identity{
			Role:     RoleDevice,
			SchoolID: device.SchoolID,
			DeviceID: device.DeviceID,
		})
		hub.Register(client)

		go client.writePump()
		client.readPump()
	}
}

// OperatorHandler upgrades a dashboard channel. The request is already behind
// the JWT middleware; the in-band handshake must name the same operator.
func OperatorHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		uVal, ok := c.Get("user")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user := uVal.(models.User)
		role := strings.ToLower(user.Role)
		if role != "teacher" && role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		env, err := readAuthEnvelope(conn)
		if err != nil {
			rejectConn(conn, "auth required")
			return
		}
		handshakeRole := strings.ToLower(env.Role)
		if (handshakeRole != "teacher" && handshakeRole != "admin") || env.OperatorID != user.UserID {
			rejectConn(conn, "identity mismatch")
			return
		}

		client := newClient(hub, conn, Identity{
			Role:       RoleOperator,
			SchoolID:   user.SchoolID,
			OperatorID: user.UserID,
		})
		hub.Register(client)

		go client.writePump()
		client.readPump()
	}
}
