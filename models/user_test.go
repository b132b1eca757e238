package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PasswordRoundTrip(t *testing.T) {
	user := User{UserID: "alice"}
	require.NoError(t, user.SetPassword("Secret123"))

	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "Secret123")

	assert.True(t, user.CheckPassword("Secret123"))
	assert.False(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword(""))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Secret123", ""},
		{"too short", "Ab1", "at least 8 characters"},
		{"no uppercase", "secret123", "uppercase"},
		{"no digit", "SecretPass", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUser_Validate(t *testing.T) {
	valid := User{UserID: "alice", Email: "alice@example.com", Age: 30}
	assert.NoError(t, valid.Validate())

	missingID := valid
	missingID.UserID = "   "
	assert.Error(t, missingID.Validate())

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.Error(t, badEmail.Validate())

	tooYoung := valid
	tooYoung.Age = 18
	assert.Error(t, tooYoung.Validate())
}
