package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	h := PasswordHasher{Pepper: "test-pepper"}

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestPasswordHasher_PepperMatters(t *testing.T) {
	t.Parallel()

	hash, err := PasswordHasher{Pepper: "a"}.Hash("secret")
	require.NoError(t, err)

	require.ErrorIs(t, PasswordHasher{Pepper: "b"}.Verify("secret", hash), ErrPasswordMismatch)
}

func TestPasswordHasher_InvalidFormat(t *testing.T) {
	t.Parallel()

	h := PasswordHasher{}
	for _, bad := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=18$m=1,t=1,p=1$aa$bb"} {
		err := h.Verify("pw", bad)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch)
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	b, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "tokens should be unique")
	require.Len(t, a, 43)

	_, err = GenerateToken(0)
	require.Error(t, err)
	require.Panics(t, func() { MustGenerateToken(-1) })
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, FingerprintToken("abc"), FingerprintToken("abc"))
	require.NotEqual(t, FingerprintToken("abc"), FingerprintToken("abd"))
}

func TestHMAC(t *testing.T) {
	t.Parallel()

	sig := SignHMAC("key", "order_1|pay_1")
	require.True(t, VerifyHMAC("key", "order_1|pay_1", sig))
	require.False(t, VerifyHMAC("key", "order_1|pay_2", sig))
	require.False(t, VerifyHMAC("other", "order_1|pay_1", sig))
	require.False(t, VerifyHMAC("key", "order_1|pay_1", "zz-not-hex"))
}
