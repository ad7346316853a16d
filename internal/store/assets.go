package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func InsertAsset(q sqlx.Ext, a *model.Asset) error {
	_, err := q.Exec(`insert into nfts (nft_id, owner_key, nft_type, data, created_at, status)
		values (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerKey, a.Type, a.DataJSON, a.CreatedAt, a.Status)
	if err != nil {
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

func GetAsset(q sqlx.Ext, id string) (*model.Asset, error) {
	asset := &model.Asset{}
	err := sqlx.Get(q, asset, "select * from nfts where nft_id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorAssetNotFound
		}
		return nil, fmt.Errorf("fetching asset: %w", err)
	}
	return asset, nil
}

// AssetsByOwner returns the owner's ACTIVE assets, newest first.
func AssetsByOwner(q sqlx.Ext, ownerKey string) ([]model.Asset, error) {
	assets := []model.Asset{}
	err := sqlx.Select(q, &assets,
		`select * from nfts where owner_key = ? and status = 'ACTIVE'
		 order by created_at desc`, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

func AllAssetsByOwner(q sqlx.Ext, ownerKey string) ([]model.Asset, error) {
	assets := []model.Asset{}
	err := sqlx.Select(q, &assets,
		"select * from nfts where owner_key = ? order by created_at desc", ownerKey)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

// UpdateAssetData rewrites the payload and, when status is non-empty,
// transitions the status in the same statement.
func UpdateAssetData(q sqlx.Ext, id string, dataJSON string, status model.AssetStatus) error {
	var res sql.Result
	var err error
	if status != "" {
		res, err = q.Exec("update nfts set data = ?, status = ? where nft_id = ?", dataJSON, status, id)
	} else {
		res, err = q.Exec("update nfts set data = ? where nft_id = ?", dataJSON, id)
	}
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorAssetNotFound
	}
	return nil
}

func UpdateAssetOwner(q sqlx.Ext, id string, newOwner string) error {
	res, err := q.Exec("update nfts set owner_key = ? where nft_id = ?", newOwner, id)
	if err != nil {
		return fmt.Errorf("updating asset owner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorAssetNotFound
	}
	return nil
}

func UpdateAssetStatus(q sqlx.Ext, id string, status model.AssetStatus) error {
	res, err := q.Exec("update nfts set status = ? where nft_id = ?", status, id)
	if err != nil {
		return fmt.Errorf("updating asset status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorAssetNotFound
	}
	return nil
}
