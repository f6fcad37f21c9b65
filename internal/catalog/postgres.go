package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS catalog_cards (
	id       TEXT PRIMARY KEY,
	position INT  NOT NULL,
	age      SMALLINT NOT NULL,
	document TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_wonders (
	id       TEXT PRIMARY KEY,
	position INT  NOT NULL,
	document TEXT NOT NULL
);
`

// ErrEmptyCatalog is returned when the database holds no cards.
var ErrEmptyCatalog = errors.New("catalog database is empty")

// PostgresSource stores catalog documents in Postgres, one YAML document
// per card and per wonder.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to databaseURL and ensures the tables exist.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTablesSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Close releases the connection pool.
func (p *PostgresSource) Close() {
	p.pool.Close()
}

// Import replaces the stored catalog with docs in one transaction.
func (p *PostgresSource) Import(ctx context.Context, docs []Document) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE catalog_cards, catalog_wonders"); err != nil {
		return 0, fmt.Errorf("failed to clear catalog: %w", err)
	}

	batch := &pgx.Batch{}
	position := 0
	for _, doc := range docs {
		for _, c := range doc.Cards {
			data, err := yaml.Marshal(c)
			if err != nil {
				return 0, fmt.Errorf("failed to encode card %s: %w", c.ID, err)
			}
			batch.Queue("INSERT INTO catalog_cards (id, position, age, document) VALUES ($1, $2, $3, $4)",
				c.ID, position, c.Age, string(data))
			position++
		}
		for _, w := range doc.Wonders {
			data, err := yaml.Marshal(w)
			if err != nil {
				return 0, fmt.Errorf("failed to encode wonder %s: %w", w.ID, err)
			}
			batch.Queue("INSERT INTO catalog_wonders (id, position, document) VALUES ($1, $2, $3)",
				w.ID, position, string(data))
			position++
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to insert catalog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return position, nil
}

// Load reads the stored catalog.
func (p *PostgresSource) Load(ctx context.Context) (*cards.MemoryCatalog, error) {
	var doc Document

	rows, err := p.pool.Query(ctx, "SELECT document FROM catalog_cards ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	err = scanDocuments(rows, func(data []byte) error {
		var c CardDoc
		if err := yaml.Unmarshal(data, &c); err != nil {
			return err
		}
		doc.Cards = append(doc.Cards, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	if len(doc.Cards) == 0 {
		return nil, ErrEmptyCatalog
	}

	rows, err = p.pool.Query(ctx, "SELECT document FROM catalog_wonders ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query wonders: %w", err)
	}
	err = scanDocuments(rows, func(data []byte) error {
		var w WonderDoc
		if err := yaml.Unmarshal(data, &w); err != nil {
			return err
		}
		doc.Wonders = append(doc.Wonders, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read wonders: %w", err)
	}

	return Build(doc)
}

func scanDocuments(rows pgx.Rows, fn func([]byte) error) error {
	defer rows.Close()
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return err
		}
		if err := fn([]byte(document)); err != nil {
			return err
		}
	}
	return rows.Err()
}
