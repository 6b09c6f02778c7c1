package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Plan     string `json:"plan" validate:"omitempty,oneof=free pro"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(signup{Name: "Ada", Password: "secret1"}))

	err := Struct(signup{Password: "abc", Plan: "gold"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name is required, password must be at least 6 characters, plan must be one of: free, pro", verr.Message)
}

func TestErrorf(t *testing.T) {
	err := Errorf("timezone %q is invalid", "Mars/Base")
	assert.Equal(t, `timezone "Mars/Base" is invalid`, err.Error())
}
