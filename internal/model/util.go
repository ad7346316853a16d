package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

func CreateID() string {
	uuid, _ := uuid.NewRandom()
	return base58.Encode(uuid[:])
}

// NewUID returns an 8 digit numeric handle.
func NewUID() string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		fmt.Fprintf(&sb, "%d", n.Int64())
	}
	return sb.String()
}

// NewInvitationCode returns 8 uppercase hex characters.
func NewInvitationCode() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// NewPassword returns a random password of the given length, used when
// provisioning bots whose credentials nobody types.
func NewPassword(length int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String()
}
