package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

func GetSetting(q sqlx.Ext, key string) (string, error) {
	var value string
	err := sqlx.Get(q, &value, "select value from settings where key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

func SetSetting(q sqlx.Ext, key string, value string) error {
	_, err := q.Exec(`insert into settings (key, value) values (?, ?)
		on conflict (key) do update set value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func SettingFloat(q sqlx.Ext, key string, fallback float64) float64 {
	raw, err := GetSetting(q, key)
	if err != nil || raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func SettingInt(q sqlx.Ext, key string, fallback int) int {
	raw, err := GetSetting(q, key)
	if err != nil || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func SettingBool(q sqlx.Ext, key string) bool {
	raw, err := GetSetting(q, key)
	if err != nil {
		return false
	}
	return raw == "true" || raw == "True" || raw == "1"
}
