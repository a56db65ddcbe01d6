package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Username: "alice_01",
		Email:    "alice@example.com",
		Password: "secret1",
	}

	require.NoError(t, ValidateStruct(payload))
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Username: "al ice",
		Email:    "invalid",
		Password: "123",
	}

	err := ValidateStruct(payload)
	require.Error(t, err)

	var vErrs ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	require.Len(t, vErrs, 3)

	byField := make(map[string]ValidationError, len(vErrs))
	for _, v := range vErrs {
		byField[v.Field] = v
	}
	require.Equal(t, "username", byField["username"].Tag)
	require.Equal(t, "email must be a valid email address", byField["email"].Message())
	require.Equal(t, "password must be at least 6 characters", byField["password"].Message())
}

func TestRequiredMessage(t *testing.T) {
	err := ValidateStruct(testPayload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "email is required")
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("always_fail", func(validator.FieldLevel) bool { return false }))

	type payload struct {
		Name string `json:"name" validate:"always_fail"`
	}
	err := ValidateStruct(payload{Name: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "name failed on always_fail")
}
