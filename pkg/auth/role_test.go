package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "admin", input: "admin", want: RoleAdmin},
		{name: "staff", input: "staff", want: RoleStaff},
		{name: "member", input: "member", want: RoleMember},
		{name: "unknown role", input: "superuser", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_BypassesPermissions(t *testing.T) {
	assert.True(t, RoleAdmin.BypassesPermissions())
	assert.False(t, RoleStaff.BypassesPermissions())
	assert.False(t, RoleMember.BypassesPermissions())
}

func TestRole_Grantable(t *testing.T) {
	assert.False(t, RoleAdmin.Grantable())
	assert.True(t, RoleStaff.Grantable())
	assert.True(t, RoleMember.Grantable())
}

func TestRole_ProfileTable(t *testing.T) {
	assert.Equal(t, "member_details", RoleMember.ProfileTable())
	assert.Equal(t, "staff_details", RoleStaff.ProfileTable())
	assert.Equal(t, "staff_details", RoleAdmin.ProfileTable())
}
