package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-admin/apperrors"
	"restaurant-admin/helpers"
	"restaurant-admin/services"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindAndValidate(c, "login", &req) {
			return
		}
		staff, err := app.Sessions.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		session := services.SessionFor(staff)
		token, err := helpers.GenerateSessionToken(app.Options.SessionSecret, session, app.Options.SessionTTL)
		if err != nil {
			respondError(c, apperrors.Unauthorized("login", "could not start a session"))
			return
		}
		respondOK(c, "Signed in", gin.H{
			"token":      token,
			"expires_at": time.Now().Add(app.Options.SessionTTL).UTC(),
			"staff":      staff,
			"session":    session,
		})
	}
}

// GetSession echoes the verified session, with the role as currently stored.
func GetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			respondError(c, apperrors.Unauthorized("get session", "not signed in"))
			return
		}
		respondOK(c, "Session is valid", session)
	}
}

func GetStaff(app *services.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, err := app.Sessions.ListStaff(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, "Staff fetched successfully", staff)
	}
}
