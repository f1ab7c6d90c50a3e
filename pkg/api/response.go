package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Result is the success envelope returned by every endpoint
type Result struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a success envelope
func Respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Result{Status: true, Message: message, Data: data})
}

// OK writes a 200 success envelope
func OK(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, message, data)
}

// Created writes a 201 success envelope
func Created(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusCreated, message, data)
}
