package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionAllows(t *testing.T) {
	tests := []struct {
		holder   Permission
		required Permission
		want     bool
	}{
		{PermissionRead, PermissionRead, true},
		{PermissionRead, PermissionWrite, false},
		{PermissionRead, PermissionAdmin, false},
		{PermissionWrite, PermissionRead, true},
		{PermissionWrite, PermissionWrite, true},
		{PermissionWrite, PermissionAdmin, false},
		{PermissionAdmin, PermissionRead, true},
		{PermissionAdmin, PermissionWrite, true},
		{PermissionAdmin, PermissionAdmin, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.holder.Allows(tt.required),
			"%s allows %s", tt.holder, tt.required)
	}
}

func TestPermissionUnknownNeverAllows(t *testing.T) {
	unknown := Permission("owner")
	assert.False(t, unknown.Allows(PermissionRead))
	assert.False(t, unknown.IsValid())

	// And nothing allows an unknown requirement either.
	assert.False(t, PermissionAdmin.Allows(unknown))
	assert.False(t, PermissionAdmin.Allows(""))
}
