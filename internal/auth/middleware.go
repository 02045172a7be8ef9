package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "billdesk_session"

// RequireManager gates manager-only routes. Form clients are redirected to
// the login page with a notice; JSON clients receive 401.
func RequireManager(sessions *SessionManager, cookieName string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, err := ctx.Cookie(cookieName)
		if err != nil || raw == "" {
			rejectUnauthenticated(ctx)
			return
		}
		session, err := sessions.Parse(raw)
		if err != nil {
			rejectUnauthenticated(ctx)
			return
		}
		ctx.Set(sessionContextKey, session)
		ctx.Next()
	}
}

// SessionFromContext returns the principal stored by RequireManager.
func SessionFromContext(ctx *gin.Context) (Session, bool) {
	value, ok := ctx.Get(sessionContextKey)
	if !ok {
		return Session{}, false
	}
	session, ok := value.(Session)
	return session, ok
}

func rejectUnauthenticated(ctx *gin.Context) {
	if wantsJSON(ctx) {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "unauthorized",
				"message": "Please log in as manager to access this page.",
			},
		})
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
	ctx.Abort()
}

func wantsJSON(ctx *gin.Context) bool {
	accept := ctx.GetHeader("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.Contains(ctx.ContentType(), "application/json")
}
