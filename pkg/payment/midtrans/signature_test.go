package midtrans

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignature(t *testing.T) {
	sum := sha512.Sum512([]byte("ORDER-1" + "200" + "29000.00" + "server-key"))
	assert.Equal(t, hex.EncodeToString(sum[:]), ComputeSignature("ORDER-1", "200", "29000.00", "server-key"))
}

func TestNotification_VerifySignature(t *testing.T) {
	valid := ComputeSignature("ORDER-1", "200", "29000.00", "server-key")

	tests := []struct {
		name string
		n    Notification
		want bool
	}{
		{
			name: "valid",
			n:    Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "29000.00", SignatureKey: valid},
			want: true,
		},
		{
			name: "tampered amount",
			n:    Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "1.00", SignatureKey: valid},
			want: false,
		},
		{
			// Amount formatting is part of the signed string.
			name: "reformatted amount",
			n:    Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "29000", SignatureKey: valid},
			want: false,
		},
		{
			name: "missing signature",
			n:    Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "29000.00"},
			want: false,
		},
		{
			name: "garbage signature",
			n:    Notification{OrderID: "ORDER-1", StatusCode: "200", GrossAmount: "29000.00", SignatureKey: "ABC"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.n.VerifySignature("server-key"))
		})
	}
}
