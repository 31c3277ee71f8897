package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// RetryAfter is set only on rate-limit rejections, in seconds.
	RetryAfter int `json:"retry_after,omitempty"`
}
