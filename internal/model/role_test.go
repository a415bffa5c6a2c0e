package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: "Admin", wantErr: true},
		{in: "", wantErr: true},
		{in: "root", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.in, got.String())
		})
	}
}

func TestZeroRoleIsInvalid(t *testing.T) {
	var r Role
	require.False(t, r.Valid())
	_, err := json.Marshal(r)
	require.Error(t, err)
}

func TestPublicUserJSONHidesPasswordHash(t *testing.T) {
	u := User{Name: "Jo", Email: "jo@x.com", PasswordHash: "$2a$secret", Role: RoleUser}
	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
	require.Contains(t, string(raw), `"role":"user"`)
}
