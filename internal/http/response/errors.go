package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
)

// RespondAPIError writes err with the status and code apierr assigns to it.
// Internal errors are reported without their message.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.Classify(err)
	if status >= 500 {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}
