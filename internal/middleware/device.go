package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const deviceIDKey = "device_id"

// DeviceMiddleware 设备标识中间件
// 所有设备级接口都要求 X-Device-Id 头
func DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := strings.TrimSpace(c.GetHeader("X-Device-Id"))
		if deviceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    -1,
				"message": "Missing X-Device-Id header",
			})
			c.Abort()
			return
		}

		c.Set(deviceIDKey, deviceID)
		c.Next()
	}
}

// GetDeviceID 从上下文获取设备标识
func GetDeviceID(c *gin.Context) (string, bool) {
	deviceID, exists := c.Get(deviceIDKey)
	if !exists {
		return "", false
	}
	id, ok := deviceID.(string)
	return id, ok
}
