// Package response writes the event API's JSON bodies. Successful responses
// carry the resource itself; failures carry {"error": message, "code": CODE}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
	CodeTooLarge   = "PAYLOAD_TOO_LARGE"
)

// ErrorBody is the body of every failed request
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OK writes data with status 200
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes data with status 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Success writes {"success": true}
func Success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Error writes an error body and aborts the handler chain
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message, Code: code})
}

// InternalError hides err from the caller; it is attached to the context for logging
func InternalError(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
}

// BadRequest writes a 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound writes a 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message)
}
