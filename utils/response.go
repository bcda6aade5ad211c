package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response helpers produce the upload API's wire shapes. Server errors
// deliberately carry a fixed error string: internals are logged, never
// echoed to the client.

// OK writes a 200 response with the given payload.
func OK(ctx *gin.Context, payload gin.H) {
	ctx.JSON(http.StatusOK, payload)
}

// Created writes a 201 response with the given payload.
func Created(ctx *gin.Context, payload gin.H) {
	ctx.JSON(http.StatusCreated, payload)
}

// ClientError reports a caller mistake with a message-only body.
func ClientError(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// ServerError reports a pipeline failure.
func ServerError(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusInternalServerError, gin.H{
		"message": message,
		"error":   "internal error",
	})
}
