package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/signcoach/internal/handshape"
)

// Sign is a custom hand shape stored in the database.
type Sign struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Kind      handshape.Kind `json:"kind"`
	Joints    [][3]float64   `json:"joints"`
	Samples   int            `json:"samples"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Pattern converts the sign into a classifier pattern.
func (s *Sign) Pattern() handshape.Pattern {
	return handshape.Pattern{Label: s.Label, Kind: s.Kind, Joints: s.Joints}
}

// SignRepository provides CRUD operations for signs.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository for this store.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

const signColumns = `id, label, kind, pattern, samples, created_at, updated_at`

// Create inserts a new sign. A label already in use yields ErrDuplicate.
func (r *SignRepository) Create(s *Sign) error {
	pattern, err := json.Marshal(s.Joints)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO signs (`+signColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Label, string(s.Kind), string(pattern), s.Samples, s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("sign %q: %w", s.Label, ErrDuplicate)
	}
	return err
}

// GetByID retrieves a sign by its ID.
func (r *SignRepository) GetByID(id string) (*Sign, error) {
	return r.getOne(`SELECT `+signColumns+` FROM signs WHERE id = ?`, id)
}

// GetByLabel retrieves a sign by its label, ignoring case.
func (r *SignRepository) GetByLabel(label string) (*Sign, error) {
	return r.getOne(`SELECT `+signColumns+` FROM signs WHERE label = ?`, label)
}

func (r *SignRepository) getOne(query string, arg any) (*Sign, error) {
	s, err := scanSign(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List retrieves all signs, oldest first so merged libraries are stable.
func (r *SignRepository) List() ([]*Sign, error) {
	rows, err := r.db.Query(`SELECT ` + signColumns + ` FROM signs ORDER BY created_at, label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signs []*Sign
	for rows.Next() {
		s, err := scanSign(rows)
		if err != nil {
			return nil, err
		}
		signs = append(signs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signs, nil
}

// Patterns returns every calibrated sign as a classifier pattern. Signs
// without joints are still waiting for samples and are left out.
func (r *SignRepository) Patterns() ([]handshape.Pattern, error) {
	signs, err := r.List()
	if err != nil {
		return nil, err
	}
	patterns := make([]handshape.Pattern, 0, len(signs))
	for _, s := range signs {
		if len(s.Joints) == 0 {
			continue
		}
		patterns = append(patterns, s.Pattern())
	}
	return patterns, nil
}

// Update updates an existing sign.
func (r *SignRepository) Update(s *Sign) error {
	pattern, err := json.Marshal(s.Joints)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	s.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE signs SET label = ?, kind = ?, pattern = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		s.Label, string(s.Kind), string(pattern), s.Samples, s.UpdatedAt, s.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("sign %q: %w", s.Label, ErrDuplicate)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a sign and, through the cascade, its samples.
func (r *SignRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM signs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSign(row rowScanner) (*Sign, error) {
	s := &Sign{}
	var kind, pattern string

	err := row.Scan(&s.ID, &s.Label, &kind, &pattern, &s.Samples, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	s.Kind = handshape.Kind(kind)
	if err := json.Unmarshal([]byte(pattern), &s.Joints); err != nil {
		return nil, fmt.Errorf("decode pattern of sign %s: %w", s.ID, err)
	}
	return s, nil
}
