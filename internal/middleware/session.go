package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/token"
)

// SessionIDKey 是会话 ID 在 gin.Context 中的键。
const SessionIDKey = "sessionID"

// Session 从签名 cookie 中取出会话 ID；cookie 缺失、被篡改或过期时签发新的会话。
func Session(manager *token.SessionManager, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string
		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			if sid, err := manager.Verify(raw); err == nil {
				sessionID = sid
			} else {
				log.Debugw("discarding invalid session cookie", "error", err)
			}
		}

		if sessionID == "" {
			sessionID = token.NewSessionID()
			signed, err := manager.Issue(sessionID)
			if err != nil {
				log.Error("failed to sign session cookie", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "failed to create session", "data": nil})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, signed, int(manager.TTL().Seconds()), "/", "", secure, true)
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// SessionID 返回当前请求的会话 ID。
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
