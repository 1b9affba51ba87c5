package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func RespondWithJSON(w http.ResponseWriter, statusCode int, payload any) {
	respond(w, statusCode, Response{Success: true, Data: payload})
}

func RespondWithMessage(w http.ResponseWriter, statusCode int, message string) {
	respond(w, statusCode, Response{Success: true, Message: message})
}

func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	respond(w, statusCode, Response{Message: message})
}
