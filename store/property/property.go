package property

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/store"
	"github.com/tsenart/nap"
)

type propertyStore struct {
	db *nap.DB
}

func New(db *nap.DB) core.PropertyStore {
	return &propertyStore{db: db}
}

// Get leaves value untouched when the key was never set.
func (s *propertyStore) Get(ctx context.Context, key string, value any) error {
	b := sq.Select("`value`").From("properties").Where(sq.Eq{"`key`": key})

	var raw []byte
	if err := b.RunWith(s.db).QueryRowContext(ctx).Scan(&raw); err != nil {
		if store.IsErrNotFound(err) {
			return nil
		}

		return err
	}

	return json.Unmarshal(raw, value)
}

func (s *propertyStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	b := sq.Insert("properties").
		Columns("`key`", "`value`").
		Values(key, raw).
		Suffix("ON DUPLICATE KEY UPDATE `value` = VALUES(`value`), `version` = `version` + 1")

	if _, err := b.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to set property: %w", err)
	}

	return nil
}
