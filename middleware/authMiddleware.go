package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"restaurant-admin/apperrors"
	"restaurant-admin/controllers"
	"restaurant-admin/helpers"
	"restaurant-admin/services"
)

// clientToken reads the session token from the "token" header, a bearer
// Authorization header, or the token query parameter browsers use for websockets.
func clientToken(c *gin.Context) string {
	if t := c.Request.Header.Get("token"); t != "" {
		return t
	}
	if auth := c.Request.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query("token")
}

// Authentication validates the token and re-checks the staff record behind it.
func Authentication(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := clientToken(c)
		if token == "" {
			abort(c, apperrors.Unauthorized("authenticate", "sign in to continue"))
			return
		}
		claims, err := helpers.ValidateToken(app.Options.SessionSecret, token)
		if err != nil {
			abort(c, apperrors.Unauthorized("authenticate", "your session has expired, sign in again"))
			return
		}
		session, err := app.Sessions.Verify(c.Request.Context(), claims.Session())
		if err != nil {
			abort(c, err)
			return
		}
		controllers.SetSession(c, session)
		c.Next()
	}
}

// RequireRoles lets only the listed roles through.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := controllers.CurrentSession(c)
		if !ok {
			abort(c, apperrors.Unauthorized("authorize", "sign in to continue"))
			return
		}
		if !session.HasRole(roles...) {
			abort(c, apperrors.Forbidden("authorize", "your role cannot open this page"))
			return
		}
		c.Next()
	}
}

// BlockDrivers keeps drivers on the order and driver pages.
func BlockDrivers() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, ok := controllers.CurrentSession(c); ok && session.IsDriver() {
			abort(c, apperrors.Forbidden("authorize", "drivers can only open the orders and driver pages"))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err), "kind": apperrors.KindOf(err)})
}
