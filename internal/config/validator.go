package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate validates the AgentConfig using struct tags and custom
// cross-field rules. Returns an error if validation fails, with actionable
// error messages.
func (c *AgentConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := c.validateProxy(); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateFogHost(); err != nil {
		return err
	}

	return nil
}

// validateFogHost enforces spec §4.1: the messaging client needs a fog
// host to establish its persistent connection, unless dev mode supplied a
// local stub via SetDevDefaults.
func (c *AgentConfig) validateFogHost() error {
	if c.Fog.Host == "" {
		return errors.New("fog.host is required (set dev_mode for a local stub fog)")
	}
	return nil
}

// validateProxy ensures a configured proxy carries both host and port.
func (c *AgentConfig) validateProxy() error {
	if c.Fog.Proxy == nil {
		return nil
	}
	if c.Fog.Proxy.Host == "" || c.Fog.Proxy.Port == 0 {
		return errors.New("fog.proxy: host and port are both required when proxy is configured")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single
// validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
