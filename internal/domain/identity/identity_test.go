package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		role    Role
		wantErr bool
	}{
		{name: "consumer", userID: "u-1", role: RoleConsumer},
		{name: "farmer", userID: "u-2", role: RoleFarmer},
		{name: "missing user", userID: "", role: RoleConsumer, wantErr: true},
		{name: "unknown role", userID: "u-3", role: Role("chef"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.userID, tt.role)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnauthenticated)
				assert.False(t, c.Authenticated())
				return
			}
			require.NoError(t, err)
			assert.True(t, c.Is(tt.role))
		})
	}
}

func TestCallerIs(t *testing.T) {
	assert.False(t, Caller{}.Is(RoleConsumer))
	assert.False(t, Caller{UserID: "u-1", Role: RoleFarmer}.Is(RoleConsumer))
	assert.True(t, Caller{UserID: "u-1", Role: RoleConsumer}.Is(RoleConsumer))
}
