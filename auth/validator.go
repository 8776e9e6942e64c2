package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SignupRequest carries the fields common to startup and corporate signup.
// ContactName is the founder name on the startup side and the contact
// person on the corporate side.
type SignupRequest struct {
	CompanyName string `validate:"required"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=6,max=72"`
	ContactName string `validate:"required"`
}

func ValidateSignup(req SignupRequest) error {
	return validate.Struct(req)
}
