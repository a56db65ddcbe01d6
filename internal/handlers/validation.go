package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/track/pkg/errors"
	"github.com/charlesng35/track/pkg/response"
	appValidator "github.com/charlesng35/track/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		if errors.Is(err, io.EOF) {
			response.Error(c, appErrors.NewBadRequest("request body is required"))
			return false
		}
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	var ve appValidator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve.Error()
	}
	return "invalid request payload"
}
