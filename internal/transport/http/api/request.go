package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"mngkeeper/internal/transport/http/json"
	dErrors "mngkeeper/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads and validates a JSON request body.
func decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.DecodeJSON(r, &v); err != nil {
		return v, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return v, dErrors.New(dErrors.CodeValidation,
				"validation failed on: "+strings.Join(fields, ", "))
		}
		return v, dErrors.Wrap(err, dErrors.CodeValidation, "validation failed")
	}
	return v, nil
}
