package validation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/apperr"
)

// BindAndValidate binds JSON body into `out` and runs validation.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": err.Error(),
		})
		return err
	}

	if err := v.Struct(out); err != nil {
		body := gin.H{
			"error":  apperr.KindValidation,
			"fields": validationErrorsToMap(err),
		}
		if first := FirstError(err); first != nil {
			body["field"] = first.Field
			body["message"] = first.Message
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
		return err
	}
	return nil
}

// FirstError converts the first field failure of a validator error into an apperr validation
// error. It returns nil when err carries no field errors.
func FirstError(err error) *apperr.Error {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return nil
	}
	fe := ve[0]
	return apperr.Validation(fe.Field(), fe.Field()+" "+Message(fe))
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = Message(fe)
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
