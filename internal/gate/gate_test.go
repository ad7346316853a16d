package gate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/model"
	"hearthcoin/pkg/crypt"
	"hearthcoin/pkg/message"
)

func signedEnvelope(t *testing.T, privPEM string, body map[string]any) *message.Envelope {
	t.Helper()
	env, err := message.Sign(privPEM, body)
	assert.Nil(t, err)
	return env
}

func TestParseAcceptsFreshSignedMessage(t *testing.T) {
	assert := assert.New(t)

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	env := signedEnvelope(t, privPEM, map[string]any{
		"owner_key": pubPEM,
		"action":    "reveal",
		"nft_id":    "abc",
		"timestamp": float64(time.Now().Unix()),
	})

	msg := &model.AssetActionMessage{}
	ownerKey, err := Parse(env, msg)
	assert.Nil(err)
	assert.Equal(pubPEM, ownerKey)
	assert.Equal("reveal", msg.Action)
	assert.Equal("abc", msg.AssetID)
}

func TestParseRejectsStaleTimestamp(t *testing.T) {
	assert := assert.New(t)

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	env := signedEnvelope(t, privPEM, map[string]any{
		"owner_key": pubPEM,
		"timestamp": float64(time.Now().Unix()) - FreshnessWindow - 10,
	})
	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorRequestExpired)

	env = signedEnvelope(t, privPEM, map[string]any{
		"owner_key": pubPEM,
		"timestamp": float64(time.Now().Unix()) + FreshnessWindow + 10,
	})
	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorRequestExpired)
}

func TestParseRejectsTamperedBody(t *testing.T) {
	assert := assert.New(t)

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	env := signedEnvelope(t, privPEM, map[string]any{
		"owner_key": pubPEM,
		"amount":    5.0,
		"timestamp": float64(time.Now().Unix()),
	})
	env.MessageJSON = fmt.Sprintf(`{"owner_key":%q,"amount":500,"timestamp":%d}`,
		pubPEM, time.Now().Unix())

	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorInvalidSignature)
}

func TestParseRejectsForeignKeyClaim(t *testing.T) {
	assert := assert.New(t)

	privPEM, _, err := crypt.GenerateKeyPair()
	assert.Nil(err)
	_, victimPub, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	// signed by the attacker but claiming the victim's identity
	env := signedEnvelope(t, privPEM, map[string]any{
		"owner_key": victimPub,
		"timestamp": float64(time.Now().Unix()),
	})
	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorInvalidSignature)
}

func TestParseRejectsMalformedEnvelopes(t *testing.T) {
	assert := assert.New(t)

	_, err := Parse(&message.Envelope{MessageJSON: "not json"}, nil)
	assert.ErrorIs(err, model.ErrorMalformedMessage)

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	env := signedEnvelope(t, privPEM, map[string]any{"timestamp": float64(time.Now().Unix())})
	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorMalformedMessage)

	env = signedEnvelope(t, privPEM, map[string]any{"owner_key": pubPEM})
	_, err = Parse(env, nil)
	assert.ErrorIs(err, model.ErrorMalformedMessage)
}

func TestParseAsUsesAlternateKeyField(t *testing.T) {
	assert := assert.New(t)

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	assert.Nil(err)

	env := signedEnvelope(t, privPEM, map[string]any{
		"from_key":  pubPEM,
		"to_key":    "someone",
		"amount":    3.0,
		"timestamp": float64(time.Now().Unix()),
	})

	msg := &model.TransferMessage{}
	fromKey, err := ParseAs(env, "from_key", msg)
	assert.Nil(err)
	assert.Equal(pubPEM, fromKey)
	assert.Equal(3.0, msg.Amount)
}
