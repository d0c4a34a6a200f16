package config

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/straye-as/gallery/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by the environment variable that sets them
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks that every required setting is present.
// It returns a *domain.ConfigError listing the offending settings.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	cfgErr := &domain.ConfigError{}
	for _, fe := range ve {
		if fe.Tag() == "required" {
			cfgErr.Missing = append(cfgErr.Missing, fe.Field())
		} else {
			cfgErr.Invalid = append(cfgErr.Invalid, fe.Field())
		}
	}
	return cfgErr
}
