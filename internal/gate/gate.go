package gate

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"hearthcoin/internal/model"
	"hearthcoin/pkg/message"
)

// FreshnessWindow bounds |now - message.timestamp| for every signed
// request, in seconds. Replay inside the window is not prevented here;
// operations stay idempotent through their own preconditions.
const FreshnessWindow = 300.0

// Parse authenticates a signed envelope and decodes its message into dst.
// The signature is checked over the raw wire bytes of message_json using
// the key named by the message's own owner_key field. Returns the owner
// key on success.
func Parse(env *message.Envelope, dst any) (string, error) {
	return ParseAs(env, "owner_key", dst)
}

// ParseAs is Parse with a different signer field, used by transfers where
// the signer is from_key.
func ParseAs(env *message.Envelope, keyField string, dst any) (string, error) {
	if !gjson.Valid(env.MessageJSON) {
		return "", model.ErrorMalformedMessage
	}

	ownerKey := gjson.Get(env.MessageJSON, keyField)
	if !ownerKey.Exists() || ownerKey.String() == "" {
		return "", fmt.Errorf("%w: missing %s", model.ErrorMalformedMessage, keyField)
	}

	if err := env.Verify(ownerKey.String()); err != nil {
		return "", model.ErrorInvalidSignature
	}

	ts := gjson.Get(env.MessageJSON, "timestamp")
	if !ts.Exists() {
		return "", fmt.Errorf("%w: missing timestamp", model.ErrorMalformedMessage)
	}
	if math.Abs(float64(time.Now().Unix())-ts.Float()) > FreshnessWindow {
		return "", model.ErrorRequestExpired
	}

	if dst != nil {
		if err := json.Unmarshal([]byte(env.MessageJSON), dst); err != nil {
			return "", fmt.Errorf("%w: %v", model.ErrorMalformedMessage, err)
		}
	}

	return ownerKey.String(), nil
}
