package assetlogic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
)

func inputString(input map[string]any, key string) string {
	if input == nil {
		return ""
	}
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func inputFloat(input map[string]any, key string) (float64, bool) {
	if input == nil {
		return 0, false
	}
	switch v := input[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func dataString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func dataFloat(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func dataInt(data map[string]any, key string) int {
	return int(dataFloat(data, key))
}

// weightedIndex picks an index with probability proportional to its weight.
func weightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rand.Intn(total)
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// mintAssetTx inserts a fresh ACTIVE asset row inside the caller's
// transaction and returns its id.
func mintAssetTx(tx *sqlx.Tx, owner string, assetType string, data map[string]any) (string, error) {
	asset := &model.Asset{
		ID:        model.CreateID(),
		OwnerKey:  owner,
		Type:      assetType,
		CreatedAt: float64(time.Now().Unix()),
		Status:    model.AssetStatusActive,
	}
	if err := asset.SetData(data); err != nil {
		return "", fmt.Errorf("encoding asset payload: %w", err)
	}
	if err := store.InsertAsset(tx, asset); err != nil {
		return "", err
	}
	return asset.ID, nil
}
