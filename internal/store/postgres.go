package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/prospect-crm/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// PoolConfig holds the configuration for the database connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a PostgreSQL pool and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the prospect and mapping tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

var prospectColumns = []string{
	"id", "nom", "prenom", "email", "telephone", "ville", "prospect_price",
	"campagne", "date_creation", "status", "dernier_appel", "proprietaire",
	"code_postal", "departement", "mode_chauffage", "montant_electricite",
	"revenus", "credit", "solution", "date_sold", "lead_price",
}

// PostgresProspects stores prospects in the prospects table.
type PostgresProspects struct {
	pool *pgxpool.Pool
}

func NewPostgresProspects(pool *pgxpool.Pool) *PostgresProspects {
	return &PostgresProspects{pool: pool}
}

// GetAll returns every prospect, newest first.
func (r *PostgresProspects) GetAll(ctx context.Context) ([]core.Prospect, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, nom, prenom, email, telephone, ville, prospect_price,
			campagne, date_creation, status, dernier_appel, proprietaire,
			code_postal, departement, mode_chauffage, montant_electricite,
			revenus, credit, solution, date_sold, lead_price
		FROM prospects
		ORDER BY date_creation DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query prospects: %w", err)
	}
	defer rows.Close()

	var out []core.Prospect
	for rows.Next() {
		var (
			p      core.Prospect
			status string
		)
		if err := rows.Scan(&p.ID, &p.Nom, &p.Prenom, &p.Email, &p.Telephone, &p.Ville, &p.ProspectPrice,
			&p.Campagne, &p.DateCreation, &status, &p.DernierAppel, &p.Proprietaire,
			&p.CodePostal, &p.Departement, &p.ModeChauffage, &p.MontantElectricite,
			&p.Revenus, &p.Credit, &p.Solution, &p.DateSold, &p.LeadPrice); err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		p.Status = core.Status(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prospects: %w", err)
	}
	return out, nil
}

// AddBatch copies the batch inside one transaction, so a failure leaves
// nothing behind.
func (r *PostgresProspects) AddBatch(ctx context.Context, ps []core.Prospect) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"prospects"}, prospectColumns,
		pgx.CopyFromSlice(len(ps), func(i int) ([]any, error) {
			return prospectValues(ps[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy prospects: %w", err)
	}
	if int(n) != len(ps) {
		return fmt.Errorf("copy prospects: wrote %d of %d", n, len(ps))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func prospectValues(p core.Prospect) []any {
	return []any{
		p.ID, p.Nom, p.Prenom, p.Email, p.Telephone, p.Ville, p.ProspectPrice,
		p.Campagne, p.DateCreation, string(p.Status), p.DernierAppel, p.Proprietaire,
		p.CodePostal, p.Departement, p.ModeChauffage, p.MontantElectricite,
		p.Revenus, p.Credit, p.Solution, p.DateSold, p.LeadPrice,
	}
}

func (r *PostgresProspects) UpdateOne(ctx context.Context, p core.Prospect) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prospects SET
			nom = $2, prenom = $3, email = $4, telephone = $5, ville = $6, prospect_price = $7,
			campagne = $8, date_creation = $9, status = $10, dernier_appel = $11, proprietaire = $12,
			code_postal = $13, departement = $14, mode_chauffage = $15, montant_electricite = $16,
			revenus = $17, credit = $18, solution = $19, date_sold = $20, lead_price = $21
		WHERE id = $1
	`, prospectValues(p)...)
	if err != nil {
		return fmt.Errorf("update prospect %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresProspects) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prospects WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete prospects: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PostgresMappings stores mapping configs as JSONB keyed by name.
type PostgresMappings struct {
	pool *pgxpool.Pool
}

func NewPostgresMappings(pool *pgxpool.Pool) *PostgresMappings {
	return &PostgresMappings{pool: pool}
}

func (r *PostgresMappings) List(ctx context.Context) ([]core.MappingConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, mappings, updated_at FROM mapping_configs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query mapping configs: %w", err)
	}
	defer rows.Close()

	out := []core.MappingConfig{}
	for rows.Next() {
		var (
			cfg core.MappingConfig
			raw []byte
		)
		if err := rows.Scan(&cfg.Name, &raw, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping config: %w", err)
		}
		if err := json.Unmarshal(raw, &cfg.Mappings); err != nil {
			return nil, fmt.Errorf("decode mapping config %q: %w", cfg.Name, err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping configs: %w", err)
	}
	return out, nil
}

// Save upserts cfg. The last save for a name wins.
func (r *PostgresMappings) Save(ctx context.Context, cfg core.MappingConfig) error {
	raw, err := json.Marshal(cfg.Mappings)
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO mapping_configs (name, mappings, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET mappings = EXCLUDED.mappings, updated_at = EXCLUDED.updated_at
	`, cfg.Name, raw, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert mapping config %q: %w", cfg.Name, err)
	}
	return nil
}

func (r *PostgresMappings) FindByName(ctx context.Context, name string) (core.MappingConfig, error) {
	var (
		cfg core.MappingConfig
		raw []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT name, mappings, updated_at FROM mapping_configs WHERE name = $1`, name,
	).Scan(&cfg.Name, &raw, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MappingConfig{}, core.ErrNotFound
	}
	if err != nil {
		return core.MappingConfig{}, fmt.Errorf("get mapping config %q: %w", name, err)
	}
	if err := json.Unmarshal(raw, &cfg.Mappings); err != nil {
		return core.MappingConfig{}, fmt.Errorf("decode mapping config %q: %w", name, err)
	}
	return cfg, nil
}
