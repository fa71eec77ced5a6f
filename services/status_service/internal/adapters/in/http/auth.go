package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/zlog"
	statusErr "github.com/qwqdev/livestatus/services/status_service/pkg/errors"
)

// SharedKeyAuth 校验 Authorization 头（去掉首尾空白后）与预共享密钥一致
func SharedKeyAuth(secret string, metrics *Metrics) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(secret))

	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader("Authorization"))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			zlog.C(c.Request.Context()).Warn("rejected status report",
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("header_present", got != ""),
			)
			metrics.reportRejected(reasonUnauthorized)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": statusErr.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}
