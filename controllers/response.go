package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"

	"restaurant-admin/apperrors"
	"restaurant-admin/models"
)

var validate = validator.New()

const sessionKey = "session"

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": message,
		"data":    data,
	})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"status":  http.StatusCreated,
		"message": message,
		"data":    data,
	})
}

// respondError writes err with the status its kind maps to. Unclassified errors
// never leak their text.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := apperrors.Message(err)
	if apperrors.KindOf(err) == "" {
		msg = "something went wrong, please try again"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": apperrors.KindOf(err)})
}

func bindAndValidate(c *gin.Context, op string, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.Validation(op, "The request body is not valid JSON."))
		return false
	}
	if err := validate.Struct(req); err != nil {
		respondError(c, apperrors.Validation(op, "%s", describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "gt":
		return fe.Field() + " must be greater than zero."
	case "gte":
		return fe.Field() + " cannot be negative."
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param() + "."
	case "email":
		return fe.Field() + " must be an email address."
	default:
		return fe.Field() + " is invalid."
	}
}

// CurrentSession returns the session the authentication middleware stored.
func CurrentSession(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	s, ok := v.(models.Session)
	return s, ok
}

// SetSession stores the verified session on the request.
func SetSession(c *gin.Context, s models.Session) {
	c.Set(sessionKey, s)
	c.Set("email", s.Email)
	c.Set("Name", s.Name)
	c.Set("uid", s.StaffID)
}
