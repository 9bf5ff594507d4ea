package dto

import (
	"net/http"
	"time"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

func NewCreatedResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusCreated, message, data)
}

type ErrorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// FieldError is one failed validation rule on a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type PaginatedData struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
