package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fieldError(fieldErrs)
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Redis carries the change stream, so it is needed unless nothing is published.
	if c.Redis.Address == "" && (!c.DryRun || c.Storage.Driver == DriverRedis) {
		return fmt.Errorf("config error: 'redis.address' is required unless dry_run is set")
	}

	return nil
}

func fieldError(errs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		// Namespace is "Config.storage.driver"; drop the root type.
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := fmt.Sprintf("'%s' failed '%s'", field, fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}
