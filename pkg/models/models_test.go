package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_EffectiveRole(t *testing.T) {
	assert.Equal(t, "admin", (&User{Role: "admin", UserRole: "user"}).EffectiveRole())
	assert.Equal(t, "moderator", (&User{UserRole: "moderator"}).EffectiveRole())
	assert.Equal(t, "", (&User{}).EffectiveRole())

	var nilUser *User
	assert.Equal(t, "", nilUser.EffectiveRole())
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"role admin", &User{Role: "admin"}, true},
		{"upper case", &User{Role: "ADMIN"}, true},
		{"user_role fallback", &User{UserRole: "Admin"}, true},
		{"padded", &User{UserRole: " admin "}, true},
		{"normal user", &User{Role: "user"}, false},
		{"no role", &User{}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestSessionResponse_DecodesUserRole(t *testing.T) {
	body := `{"success":true,"user":{"id":"u-1","username":"alice","user_role":"admin","is_premium":true}}`

	var resp SessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u-1", resp.User.ID)
	assert.True(t, resp.User.IsPremium)
	assert.True(t, resp.User.IsAdmin())
}

func TestStats_JSONUsesCamelCase(t *testing.T) {
	data, err := json.Marshal(Stats{TotalPosts: 3, AverageRating: 4.5})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"totalPosts":3`)
	assert.Contains(t, string(data), `"averageRating":4.5`)
	assert.Contains(t, string(data), `"following":0`)
}
