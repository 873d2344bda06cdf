package common

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleAdmin     = "admin"
)

// Neighborhoods is the fixed set of Lagos areas a profile or listing can be in.
var Neighborhoods = []string{
	"Ikeja",
	"Yaba",
	"Surulere",
	"Lekki",
	"Victoria Island",
	"Ajah",
	"Maryland",
}

// IsNeighborhood reports whether name is one of Neighborhoods.
func IsNeighborhood(name string) bool {
	for _, n := range Neighborhoods {
		if n == name {
			return true
		}
	}
	return false
}

// ValidateNeighborhood is registered with gin's validator under the
// "neighborhood" tag. Empty values pass; combine with "required" when needed.
func ValidateNeighborhood(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || IsNeighborhood(v)
}

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("neighborhood", ValidateNeighborhood)
}
