package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	"hearthcoin/pkg/crypt"
)

// Envelope is the wire form of every mutating request. The signature
// covers the exact UTF-8 bytes of MessageJSON as sent.
type Envelope struct {
	MessageJSON string `json:"message_json"`
	Signature   string `json:"signature"`
}

// Canonicalize renders v as canonical JSON: keys sorted, compact
// separators, no HTML escaping, non-ASCII passed through verbatim.
// Both signer and verifier must agree on this exact form, so structs
// are flattened to maps first to get sorted keys.
func Canonicalize(v any) ([]byte, error) {
	staging, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling message: %w", err)
	}

	var generic any
	if err := json.Unmarshal(staging, &generic); err != nil {
		return nil, fmt.Errorf("staging message: %w", err)
	}

	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(generic); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Sign canonicalizes v and signs it, returning a ready to send envelope.
func Sign(privPEM string, v any) (*Envelope, error) {
	raw, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	sig, err := crypt.Sign(privPEM, raw)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}
	return &Envelope{MessageJSON: string(raw), Signature: sig}, nil
}

// Verify checks the envelope signature against the given public key over
// the raw wire bytes of MessageJSON.
func (e *Envelope) Verify(pubPEM string) error {
	return crypt.Verify(pubPEM, []byte(e.MessageJSON), e.Signature)
}
