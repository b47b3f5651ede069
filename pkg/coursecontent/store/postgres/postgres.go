// Package postgres provides a Store implementation on a single PostgreSQL
// table mirroring the two-part-key layout.
//
// Expected schema:
//
//	CREATE TABLE content_rows (
//	    partition_key  text        NOT NULL,
//	    sort_key       text        NOT NULL,
//	    index_key      text,
//	    index_sort_key text,
//	    value          bytea,
//	    counter        bigint      NOT NULL DEFAULT 0,
//	    PRIMARY KEY (partition_key, sort_key)
//	);
//	CREATE INDEX content_rows_gsi1 ON content_rows (index_key, index_sort_key)
//	    WHERE index_key IS NOT NULL;
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/course-content/pkg/coursecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements coursecontent.Store using PostgreSQL.
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) Get(ctx context.Context, partitionKey, sortKey string) (*coursecontent.Item, error) {
	item := coursecontent.Item{PartitionKey: partitionKey, SortKey: sortKey}

	var indexKey, indexSortKey *string
	err := s.db.QueryRow(ctx, `
		SELECT index_key, index_sort_key, value
		FROM content_rows
		WHERE partition_key = $1 AND sort_key = $2`,
		partitionKey, sortKey,
	).Scan(&indexKey, &indexSortKey, &item.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, coursecontent.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get failed: %w", err)
	}

	if indexKey != nil {
		item.IndexKey = *indexKey
	}
	if indexSortKey != nil {
		item.IndexSortKey = *indexSortKey
	}
	return &item, nil
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *Store) PutIfAbsent(ctx context.Context, item coursecontent.Item) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO content_rows (partition_key, sort_key, index_key, index_sort_key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partition_key, sort_key) DO NOTHING`,
		item.PartitionKey, item.SortKey, nullable(item.IndexKey), nullable(item.IndexSortKey), item.Value,
	)
	if err != nil {
		return fmt.Errorf("postgres conditional insert failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coursecontent.ErrItemExists
	}
	return nil
}

func (s *Store) Put(ctx context.Context, item coursecontent.Item) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO content_rows (partition_key, sort_key, index_key, index_sort_key, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partition_key, sort_key) DO UPDATE
		SET index_key = EXCLUDED.index_key,
		    index_sort_key = EXCLUDED.index_sort_key,
		    value = EXCLUDED.value`,
		item.PartitionKey, item.SortKey, nullable(item.IndexKey), nullable(item.IndexSortKey), item.Value,
	)
	if err != nil {
		return fmt.Errorf("postgres upsert failed: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, item coursecontent.Item) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE content_rows
		SET index_key = $3, index_sort_key = $4, value = $5
		WHERE partition_key = $1 AND sort_key = $2`,
		item.PartitionKey, item.SortKey, nullable(item.IndexKey), nullable(item.IndexSortKey), item.Value,
	)
	if err != nil {
		return fmt.Errorf("postgres update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coursecontent.ErrItemNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, sortKey string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM content_rows
		WHERE partition_key = $1 AND sort_key = $2`,
		partitionKey, sortKey,
	)
	if err != nil {
		return fmt.Errorf("postgres delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coursecontent.ErrItemNotFound
	}
	return nil
}

func (s *Store) scanItems(rows pgx.Rows) ([]coursecontent.Item, error) {
	defer rows.Close()

	var result []coursecontent.Item
	for rows.Next() {
		var item coursecontent.Item
		var indexKey, indexSortKey *string
		if err := rows.Scan(&item.PartitionKey, &item.SortKey, &indexKey, &indexSortKey, &item.Value); err != nil {
			return nil, fmt.Errorf("postgres row scan failed: %w", err)
		}
		if indexKey != nil {
			item.IndexKey = *indexKey
		}
		if indexSortKey != nil {
			item.IndexSortKey = *indexSortKey
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (s *Store) Query(ctx context.Context, partitionKey, sortKeyPrefix string) ([]coursecontent.Item, error) {
	// Sort-key prefixes contain no LIKE metacharacters; the schema uses
	// '#'-separated segments only.
	rows, err := s.db.Query(ctx, `
		SELECT partition_key, sort_key, index_key, index_sort_key, value
		FROM content_rows
		WHERE partition_key = $1 AND sort_key LIKE $2 || '%'
		ORDER BY sort_key`,
		partitionKey, sortKeyPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}
	return s.scanItems(rows)
}

func (s *Store) QueryIndex(ctx context.Context, indexKey string) ([]coursecontent.Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT partition_key, sort_key, index_key, index_sort_key, value
		FROM content_rows
		WHERE index_key = $1
		ORDER BY index_sort_key`,
		indexKey,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres index query failed: %w", err)
	}
	return s.scanItems(rows)
}

func (s *Store) Increment(ctx context.Context, partitionKey, sortKey string, delta int64) (int64, error) {
	var counter int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO content_rows (partition_key, sort_key, counter)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_key, sort_key) DO UPDATE
		SET counter = content_rows.counter + EXCLUDED.counter
		RETURNING counter`,
		partitionKey, sortKey, delta,
	).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("postgres counter update failed: %w", err)
	}
	return counter, nil
}
