package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/notification"
)

type LoginRequest struct {
	Login    string `json:"login" validate:"required"` // email or roll number
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Login = core.CleanString(lr.Login)
	return validate.Struct(lr)
}

type LoginResponse struct {
	Token string `json:"token"`
}

// splitTypes accepts both repeated ?types= parameters and a comma separated list.
func splitTypes(in []notification.Type) []notification.Type {
	var out []notification.Type
	for _, t := range in {
		for _, part := range strings.Split(string(t), ",") {
			if part = core.CleanString(part, true /* lower */); part != "" {
				out = append(out, notification.Type(part))
			}
		}
	}
	return out
}
