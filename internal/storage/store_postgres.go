package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// PostgresStore is the production Store. Proof dedup rides on the unique
// index over raw_proof_hash, so concurrent submissions of the same proof
// resolve in the database rather than in application code.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects and verifies the database is reachable.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, public_key, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO NOTHING`,
		user.ID, user.PublicKey)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, public_key, created_at
		FROM users
		WHERE id = $1`, id).
		Scan(&user.ID, &user.PublicKey, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) InsertProof(ctx context.Context, proof Proof) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proofs (proof_identifier, user_id, provider, raw_proof, raw_proof_hash, public_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		proof.ProofIdentifier, proof.UserID, proof.Provider, proof.RawProof, proof.RawProofHash, proof.PublicData)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting proof: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProofByHash(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM proofs WHERE raw_proof_hash = $1`, hash)
	if err != nil {
		return fmt.Errorf("deleting proof: %w", err)
	}
	return nil
}

func (s *PostgresStore) ProofExistsByHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM proofs WHERE raw_proof_hash = $1)`, hash).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking proof hash: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListProofsByUser(ctx context.Context, userID string) ([]Proof, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proof_identifier, user_id, provider, raw_proof, raw_proof_hash, public_data, created_at
		FROM proofs
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying proofs: %w", err)
	}
	defer rows.Close()

	var proofs []Proof
	for rows.Next() {
		var p Proof
		if err := rows.Scan(&p.ProofIdentifier, &p.UserID, &p.Provider, &p.RawProof, &p.RawProofHash, &p.PublicData, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning proof: %w", err)
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

func (s *PostgresStore) ProofStatsByProvider(ctx context.Context) ([]ProviderStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, COUNT(*)
		FROM proofs
		GROUP BY provider
		ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("querying proof stats: %w", err)
	}
	defer rows.Close()

	var stats []ProviderStat
	for rows.Next() {
		var stat ProviderStat
		if err := rows.Scan(&stat.Provider, &stat.Count); err != nil {
			return nil, fmt.Errorf("scanning proof stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
