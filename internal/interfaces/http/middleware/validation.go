package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

// SetupValidator makes gin's binding report JSON field names, the same
// way mutation payloads are validated.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(validation.JSONName)
	}
}

// HandleValidationError answers 400 with per-field details when err came
// from the validator, and a plain bad request otherwise.
func HandleValidationError(c *gin.Context, err error) {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Request validation failed", GetRequestID(c), validation.Fields(verrs)))
		return
	}
	abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, err.Error())
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
