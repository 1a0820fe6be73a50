package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/examtraining/examtraining/internal/docstore"
)

// Documents implements docstore.Store on the documents table.
type Documents struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ docstore.Store = (*Documents)(nil)

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func docKey(collection, id string) *entsql.Predicate {
	return entsql.And(entsql.EQ("collection", collection), entsql.EQ("id", id))
}

func (d *Documents) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	query, args := builder().
		Select("data").
		From(builder().Table(documentsTable.Name)).
		Where(docKey(collection, id)).
		Query()

	var data []byte
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (d *Documents) Query(ctx context.Context, collection, orderBy string) ([]docstore.Document, error) {
	sel := builder().
		Select("id", "data").
		From(builder().Table(documentsTable.Name)).
		Where(entsql.EQ("collection", collection))
	if orderBy != "" {
		sel.OrderExpr(entsql.Expr("json_extract(data, ?)", "$."+orderBy))
	}
	sel.OrderBy("seq")
	query, args := sel.Query()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

func (d *Documents) Create(ctx context.Context, collection, id string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	seq, err := d.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := builder().
		Insert(documentsTable.Name).
		Columns("collection", "id", "data", "seq").
		Values(collection, id, string(raw), seq).
		OnConflict(entsql.ConflictColumns("collection", "id"), entsql.DoNothing()).
		Query()

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return docstore.ErrExists
	}
	return nil
}

func (d *Documents) Set(ctx context.Context, collection, id string, data any) error {
	raw, err := docstore.Marshal(data)
	if err != nil {
		return err
	}
	seq, err := d.seq.Next(ctx)
	if err != nil {
		return err
	}

	// The sequence of an existing document is kept so replacing it does not
	// move it in insertion order.
	query, args := builder().
		Insert(documentsTable.Name).
		Columns("collection", "id", "data", "seq").
		Values(collection, id, string(raw), seq).
		OnConflict(
			entsql.ConflictColumns("collection", "id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("data")
			}),
		).
		Query()

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (d *Documents) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().
		Select("data").
		From(builder().Table(documentsTable.Name)).
		Where(docKey(collection, id)).
		Query()

	var data []byte
	err = tx.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	merged, err := docstore.Merge(json.RawMessage(data), fields)
	if err != nil {
		return err
	}

	query, args = builder().
		Update(documentsTable.Name).
		Set("data", string(merged)).
		Where(docKey(collection, id)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (d *Documents) Delete(ctx context.Context, collection, id string) error {
	query, args := builder().
		Delete(documentsTable.Name).
		Where(docKey(collection, id)).
		Query()
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (d *Documents) DeleteCollection(ctx context.Context, collection string) error {
	query, args := builder().
		Delete(documentsTable.Name).
		Where(entsql.EQ("collection", collection)).
		Query()
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}
