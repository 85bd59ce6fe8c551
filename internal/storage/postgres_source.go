package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"especulai/internal/models"
)

// PostgresSource reads the collector's raw listings table. It is
// strictly read-only: the crawler owns the table, this side only
// consumes it.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// NewPostgresSource opens a connection and verifies it with a ping.
func NewPostgresSource(dsn, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres source: open: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("postgres source: ping: %w", err)
	}

	if table == "" {
		table = "anuncios"
	}

	return &PostgresSource{db: db, table: table}, nil
}

// Fetch selects every raw listing, oldest collection first so reruns
// over the same table are deterministic.
func (s *PostgresSource) Fetch(ctx context.Context) ([]models.RawListing, error) {
	query, args, err := sq.
		Select(
			"fonte", "tipo_negocio", "valor_anuncio", "area_m2",
			"quartos", "banheiros", "tipo_imovel", "bairro",
			"cidade", "localizacao", "url_anuncio", "data_coleta",
		).
		From(s.table).
		OrderBy("data_coleta", "url_anuncio").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres source: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres source: query %s: %w", s.table, err)
	}
	defer rows.Close()

	var listings []models.RawListing

	for rows.Next() {
		var (
			l           models.RawListing
			collectedAt sql.NullTime
		)

		err := rows.Scan(
			&l.Source, &l.BusinessType, &l.Price, &l.Area,
			&l.Rooms, &l.Bathrooms, &l.PropertyType, &l.Neighborhood,
			&l.City, &l.Location, &l.URL, &collectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres source: scan: %w", err)
		}

		if collectedAt.Valid {
			l.CollectedAt = collectedAt.Time.UTC()
		} else {
			l.CollectedAt = time.Time{}
		}

		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres source: iterate: %w", err)
	}

	return listings, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
