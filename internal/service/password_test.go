package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	passwords := []string{"Secret1!", "correct horse battery staple", "ünïcødé-pässwörd"}
	for _, p := range passwords {
		t.Run(p, func(t *testing.T) {
			d1, err := h.Hash(p)
			require.NoError(t, err)
			d2, err := h.Hash(p)
			require.NoError(t, err)

			require.NotEqual(t, d1, d2, "salt must differ per call")
			require.NotContains(t, d1, p)
			require.True(t, h.Compare(d1, p))
			require.True(t, h.Compare(d2, p))
			require.False(t, h.Compare(d1, p+"x"))
		})
	}
}

func TestBcryptHasherCompareNeverPanicsOnGarbage(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	require.False(t, h.Compare("", "anything"))
	require.False(t, h.Compare("not-a-hash", "anything"))
}

func TestBcryptHasherRejectsOverlongInput(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.Hash(string(long))
	require.Error(t, err)
}
