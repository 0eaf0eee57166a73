package verrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError_Creation(t *testing.T) {
	underlyingErr := errors.New("file not found")

	configErr := &ConfigError{
		Op:   "load",
		Path: "/path/to/config.yaml",
		Err:  underlyingErr,
	}

	if configErr.Op != "load" {
		t.Errorf("expected Op to be 'load', got %s", configErr.Op)
	}
	if configErr.Path != "/path/to/config.yaml" {
		t.Errorf("expected Path to be '/path/to/config.yaml', got %s", configErr.Path)
	}
	if configErr.Err != underlyingErr {
		t.Errorf("expected Err to be the underlying error, got %v", configErr.Err)
	}
}

func TestConfigError_Error_WithPath(t *testing.T) {
	configErr := &ConfigError{Op: "load", Path: "/path/to/config.yaml", Err: errors.New("file not found")}
	expected := "config load /path/to/config.yaml: file not found"
	if configErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, configErr.Error())
	}
}

func TestConfigError_Error_WithoutPath(t *testing.T) {
	configErr := &ConfigError{Op: "parse", Err: errors.New("invalid format")}
	expected := "config parse: invalid format"
	if configErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, configErr.Error())
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	underlyingErr := errors.New("original error")
	configErr := &ConfigError{Op: "validate", Path: "config.yaml", Err: underlyingErr}

	if configErr.Unwrap() != underlyingErr {
		t.Errorf("expected unwrapped error to be original error, got %v", configErr.Unwrap())
	}
}

func TestNewConfigError(t *testing.T) {
	underlyingErr := errors.New("permission denied")
	configErr := NewConfigError("save", "/etc/config.yaml", underlyingErr)

	expected := "config save /etc/config.yaml: permission denied"
	if configErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, configErr.Error())
	}
}

func TestValidationError_Error(t *testing.T) {
	validationErr := &ValidationError{Field: "port", Value: "invalid", Err: errors.New("must be a valid port number")}
	expected := "validation failed for field port (value: invalid): must be a valid port number"
	if validationErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, validationErr.Error())
	}
}

func TestValidationError_Error_WithoutField(t *testing.T) {
	validationErr := &ValidationError{Err: errors.New("validation failed")}
	expected := "validation failed: validation failed"
	if validationErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, validationErr.Error())
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	underlyingErr := errors.New("original validation error")
	validationErr := &ValidationError{Field: "username", Err: underlyingErr}
	if validationErr.Unwrap() != underlyingErr {
		t.Errorf("expected unwrapped error to be original error, got %v", validationErr.Unwrap())
	}
}

func TestNewValidationError(t *testing.T) {
	underlyingErr := errors.New("cannot be empty")
	validationErr := NewValidationError("username", "", underlyingErr)

	expected := "validation failed for field username (value: ): cannot be empty"
	if validationErr.Error() != expected {
		t.Errorf("expected error message '%s', got '%s'", expected, validationErr.Error())
	}
}

func TestIsConfigError(t *testing.T) {
	configErr := NewConfigError("load", "config.yaml", errors.New("file not found"))
	haltErr := &HaltError{CheckID: "c1", Message: "stop"}
	regularErr := errors.New("regular error")

	if !IsConfigError(configErr) {
		t.Error("expected IsConfigError to return true for ConfigError")
	}
	if IsConfigError(haltErr) {
		t.Error("expected IsConfigError to return false for HaltError")
	}
	if IsConfigError(regularErr) {
		t.Error("expected IsConfigError to return false for regular error")
	}
}

func TestIsValidationError(t *testing.T) {
	validationErr := NewValidationError("field", "value", errors.New("validation failed"))
	configErr := NewConfigError("load", "config.yaml", errors.New("file not found"))

	if !IsValidationError(validationErr) {
		t.Error("expected IsValidationError to return true for ValidationError")
	}
	if IsValidationError(configErr) {
		t.Error("expected IsValidationError to return false for ConfigError")
	}
}

func TestIsHalt(t *testing.T) {
	haltErr := &HaltError{CheckID: "c1", Message: "stop"}
	if !IsHalt(haltErr) {
		t.Error("expected IsHalt to return true for HaltError")
	}
	if IsHalt(errors.New("regular")) {
		t.Error("expected IsHalt to return false for regular error")
	}
}

func TestErrorUnwrapping(t *testing.T) {
	originalErr := fmt.Errorf("original error")
	configErr := NewConfigError("load", "config.yaml", originalErr)

	if !errors.Is(configErr, originalErr) {
		t.Error("expected errors.Is to return true for unwrapped error")
	}

	var targetConfigErr *ConfigError
	if !errors.As(configErr, &targetConfigErr) {
		t.Error("expected errors.As to return true for ConfigError type")
	}
	if targetConfigErr.Op != "load" {
		t.Errorf("expected Op to be 'load', got %s", targetConfigErr.Op)
	}
}

func TestErrorChaining(t *testing.T) {
	baseErr := errors.New("base error")
	configErr := NewConfigError("parse", "config.yaml", baseErr)
	wrappedErr := fmt.Errorf("wrapper: %w", configErr)

	if !errors.Is(wrappedErr, baseErr) {
		t.Error("expected errors.Is to work through multiple wrapping layers")
	}

	var targetConfigErr *ConfigError
	if !errors.As(wrappedErr, &targetConfigErr) {
		t.Error("expected errors.As to work through multiple wrapping layers")
	}
}

func TestTypedError_KindAndUnwrap(t *testing.T) {
	base := errors.New("budget exceeded")
	err := New(KindSandboxTimeout, "if-expr", "check:lint", base)

	if err.Unwrap() != base {
		t.Error("expected Unwrap to return the base error")
	}
	if !Is(err, KindSandboxTimeout) {
		t.Error("expected Is to match KindSandboxTimeout")
	}
	if Is(err, KindRoutingMaxLoops) {
		t.Error("expected Is to not match a different Kind")
	}

	wrapped := fmt.Errorf("wrapped: %w", err)
	if !Is(wrapped, KindSandboxTimeout) {
		t.Error("expected Is to see through fmt.Errorf wrapping")
	}
}
