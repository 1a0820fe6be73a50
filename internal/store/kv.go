package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// KV stores training state in the kv table. It satisfies training.KV.
type KV struct {
	db *sql.DB
}

// Load returns the value stored under key, or nil.
func (k *KV) Load(ctx context.Context, key string) ([]byte, error) {
	query, args := builder().
		Select("value").
		From(builder().Table(kvTable.Name)).
		Where(entsql.EQ("key", key)).
		Query()

	var v []byte
	err := k.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

// Save stores value under key.
func (k *KV) Save(ctx context.Context, key string, value []byte) error {
	query, args := builder().
		Insert(kvTable.Name).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := k.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key starting with prefix and returns how many were
// removed. An empty prefix clears the table.
func (k *KV) Clear(ctx context.Context, prefix string) (int, error) {
	query, args := builder().
		Delete(kvTable.Name).
		Where(entsql.HasPrefix("key", prefix)).
		Query()

	res, err := k.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear %q: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
