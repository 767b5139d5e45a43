package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	Write(w, status, APIResponse{
		Success: true,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ErrorCode is Error with a machine-readable code
func ErrorCode(w http.ResponseWriter, status int, code, msg string) {
	Write(w, status, APIResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// Write encodes v as the whole response body
func Write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
