package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the standard API response envelope.
type Body struct {
	Message   string      `json:"message"`
	IsSuccess bool        `json:"isSuccess"`
	Data      interface{} `json:"data,omitempty"`
}

// OK sends a 200 JSON response.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Message: message, IsSuccess: true, Data: data})
}

// Created sends a 201 JSON response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Message: message, IsSuccess: true, Data: data})
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Body{Message: message, IsSuccess: false})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Body{Message: message, IsSuccess: false})
}

// NotFound sends 404.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Body{Message: message, IsSuccess: false})
}

// Internal sends 500.
func Internal(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Body{Message: message, IsSuccess: false})
}
