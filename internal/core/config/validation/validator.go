package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/signalfx/redis-keys-agent/internal/utils"
	validator "gopkg.in/go-playground/validator.v9"
)

// Validatable should be implemented by config structs that want to provide
// validation when the config is loaded.
type Validatable interface {
	Validate() error
}

// ValidateCustomConfig calls the Validate method of conf if it has one
func ValidateCustomConfig(conf interface{}) error {
	if v, ok := conf.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// ValidateStruct uses the `validate` struct tags to do standard validation.
// Fields are referred to by their YAML path in error messages.
func ValidateStruct(confStruct interface{}) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return utils.YAMLNameOfField(field)
	})

	err := validate.Struct(confStruct)
	if err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			var msgs []string
			for _, e := range ves {
				fieldName := e.Namespace()
				// Drop the name of the top level struct
				if i := strings.Index(fieldName, "."); i >= 0 {
					fieldName = fieldName[i+1:]
				}
				msgs = append(msgs, fmt.Sprintf("Validation error in field '%s': %s", fieldName, e.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
