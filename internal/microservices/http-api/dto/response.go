package dto

// Response is the common JSON envelope.
//
//	{"success":true,"data":{...},"message":"..."}
//	{"success":false,"error":"..."}
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
