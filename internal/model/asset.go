package model

import "encoding/json"

type AssetStatus string

const (
	AssetStatusActive    AssetStatus = "ACTIVE"
	AssetStatusDestroyed AssetStatus = "DESTROYED"
	AssetStatusBurned    AssetStatus = "BURNED"
)

// Asset is a uniquely owned item with a type tag and an opaque per-type
// payload. The payload travels as JSON text at the storage boundary.
type Asset struct {
	ID        string      `db:"nft_id" json:"nft_id"`
	OwnerKey  string      `db:"owner_key" json:"owner_key"`
	Type      string      `db:"nft_type" json:"nft_type"`
	DataJSON  string      `db:"data" json:"-"`
	CreatedAt float64     `db:"created_at" json:"created_at"`
	Status    AssetStatus `db:"status" json:"status"`
}

func (a *Asset) Data() map[string]any {
	data := map[string]any{}
	if a.DataJSON != "" {
		_ = json.Unmarshal([]byte(a.DataJSON), &data)
	}
	return data
}

func (a *Asset) SetData(data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	a.DataJSON = string(encoded)
	return nil
}

func (a Asset) MarshalJSON() ([]byte, error) {
	type alias Asset
	return json.Marshal(struct {
		alias
		Data map[string]any `json:"data"`
	}{alias(a), a.Data()})
}
