package httpapi

import "github.com/gin-gonic/gin"

// Формат ответов повторяет конвенцию бэкенда: {success, data} либо {message}.
type jsonResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondData(c *gin.Context, code int, data interface{}) {
	c.JSON(code, jsonResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, jsonResponse{Success: code >= 200 && code < 300, Message: message})
}
