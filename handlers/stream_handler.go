package handlers

import (
	"log"
	"net/http"
	"strconv"

	gws "github.com/gorilla/websocket"

	"riskregister/utils"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamUpdates upgrades the connection and subscribes it to entity
// change events. Browsers cannot set headers on WebSocket requests, so
// the token travels in the query string.
func StreamUpdates(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing token")
		return
	}
	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user id in token")
		return
	}
	if _, err := svc.GetUser(r.Context(), userID); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	hub.Register(conn)
}
