// pkg/util/ip.go
package util

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// proxyHeaders 按优先级排列的代理/CDN 真实IP头部
var proxyHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
}

// GetRealClientIP 获取客户端真实IP地址，头部中取第一个合法IP，都没有时退回 gin 的 ClientIP
func GetRealClientIP(c *gin.Context) string {
	for _, header := range proxyHeaders {
		value := c.GetHeader(header)
		if value == "" {
			continue
		}
		first := strings.TrimSpace(strings.Split(value, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	return c.ClientIP()
}
