package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnitsTruncates(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{amount: 30, want: 3000},
		{amount: 10.5, want: 1050},
		{amount: 19.999, want: 1999},
		// 0.29 * 100 is 28.999999999999996 in binary floating point
		{amount: 0.29, want: 28},
		{amount: 0.001, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(tt.amount), "amount %v", tt.amount)
	}
}

func TestSignMatchesReferenceHMAC(t *testing.T) {
	s := NewSigner("test_secret")

	mac := hmac.New(sha256.New, []byte("test_secret"))
	mac.Write([]byte("order_123|pay_456"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, s.Sign("order_123", "pay_456"))
	// standard encoding keeps padding: 32 bytes -> 44 chars ending in '='
	assert.Len(t, want, 44)
	assert.Equal(t, byte('='), want[len(want)-1])
}

func TestSignatureLaw(t *testing.T) {
	s := NewSigner("k3y")
	pairs := [][2]string{
		{"order_1", "pay_1"},
		{"order_LmN0pQ", "pay_Zz9"},
		{"", ""},
		{"a|b", "c"},
	}
	for _, p := range pairs {
		sig := s.Sign(p[0], p[1])
		assert.True(t, s.Verify(p[0], p[1], sig))

		assert.False(t, s.Verify(p[0]+"x", p[1], sig))
		assert.False(t, s.Verify(p[0], p[1]+"x", sig))

		tampered := []byte(sig)
		if tampered[0] == 'A' {
			tampered[0] = 'B'
		} else {
			tampered[0] = 'A'
		}
		assert.False(t, s.Verify(p[0], p[1], string(tampered)))
	}
}

func TestSignDependsOnSecret(t *testing.T) {
	a := NewSigner("one").Sign("order_1", "pay_1")
	b := NewSigner("two").Sign("order_1", "pay_1")
	assert.NotEqual(t, a, b)
}
