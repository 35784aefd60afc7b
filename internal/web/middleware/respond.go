package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/form1099/internal/core"
)

// writeError writes the same JSON error shape the handlers use.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
