package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kiln-labs/kiln-go/internal/repo"
)

type ComponentStore struct {
	db DB
}

const (
	insertComponentVersionQuery = `INSERT INTO component_versions (
		version_id,
		name,
		digest,
		description,
		spec_yaml,
		created_by
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (name, digest) DO NOTHING
	RETURNING version_id, name, digest, description, spec_yaml, created_by, created_at`

	selectComponentVersionQuery = `SELECT version_id, name, digest, description, spec_yaml, created_by, created_at
	 FROM component_versions
	 WHERE name = $1 AND digest = $2`

	selectLatestComponentQuery = `SELECT version_id, name, digest, description, spec_yaml, created_by, created_at
	 FROM component_versions
	 WHERE name = $1
	 ORDER BY created_at DESC, version_id DESC
	 LIMIT 1`

	selectComponentVersionsQuery = `SELECT version_id, name, digest, description, spec_yaml, created_by, created_at
	 FROM component_versions
	 WHERE name = $1
	 ORDER BY created_at DESC, version_id DESC`

	selectLatestComponentsQuery = `SELECT DISTINCT ON (name) version_id, name, digest, description, spec_yaml, created_by, created_at
	 FROM component_versions
	 ORDER BY name, created_at DESC, version_id DESC`
)

func NewComponentStore(db DB) *ComponentStore {
	if db == nil {
		return nil
	}
	return &ComponentStore{db: db}
}

// CreateVersion publishes a component version. Publishing the same
// (name, digest) pair again returns the existing record with created=false.
func (s *ComponentStore) CreateVersion(ctx context.Context, name, digest, description string, specYAML []byte, createdBy string) (repo.ComponentVersionRecord, bool, error) {
	if s == nil || s.db == nil {
		return repo.ComponentVersionRecord{}, false, fmt.Errorf("component store not initialized")
	}
	name = strings.TrimSpace(name)
	digest = strings.TrimSpace(digest)
	if name == "" {
		return repo.ComponentVersionRecord{}, false, fmt.Errorf("component name is required")
	}
	if digest == "" {
		return repo.ComponentVersionRecord{}, false, fmt.Errorf("digest is required")
	}
	if len(specYAML) == 0 {
		return repo.ComponentVersionRecord{}, false, fmt.Errorf("component definition is required")
	}

	var record repo.ComponentVersionRecord
	err := s.db.QueryRowContext(
		ctx,
		insertComponentVersionQuery,
		uuid.NewString(),
		name,
		digest,
		description,
		specYAML,
		strings.TrimSpace(createdBy),
	).Scan(&record.ID, &record.Name, &record.Digest, &record.Description, &record.SpecYAML, &record.CreatedBy, &record.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return repo.ComponentVersionRecord{}, false, fmt.Errorf("insert component version: %w", err)
		}
		existing, err := s.GetVersion(ctx, name, digest)
		if err != nil {
			return repo.ComponentVersionRecord{}, false, err
		}
		return existing, false, nil
	}
	return record, true, nil
}

func (s *ComponentStore) GetVersion(ctx context.Context, name, digest string) (repo.ComponentVersionRecord, error) {
	if s == nil || s.db == nil {
		return repo.ComponentVersionRecord{}, fmt.Errorf("component store not initialized")
	}
	name = strings.TrimSpace(name)
	digest = strings.TrimSpace(digest)
	if name == "" {
		return repo.ComponentVersionRecord{}, fmt.Errorf("component name is required")
	}
	if digest == "" {
		return repo.ComponentVersionRecord{}, fmt.Errorf("digest is required")
	}
	var record repo.ComponentVersionRecord
	row := s.db.QueryRowContext(ctx, selectComponentVersionQuery, name, digest)
	if err := row.Scan(&record.ID, &record.Name, &record.Digest, &record.Description, &record.SpecYAML, &record.CreatedBy, &record.CreatedAt); err != nil {
		return repo.ComponentVersionRecord{}, handleNotFound(err)
	}
	return record, nil
}

func (s *ComponentStore) GetLatest(ctx context.Context, name string) (repo.ComponentVersionRecord, error) {
	if s == nil || s.db == nil {
		return repo.ComponentVersionRecord{}, fmt.Errorf("component store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return repo.ComponentVersionRecord{}, fmt.Errorf("component name is required")
	}
	var record repo.ComponentVersionRecord
	row := s.db.QueryRowContext(ctx, selectLatestComponentQuery, name)
	if err := row.Scan(&record.ID, &record.Name, &record.Digest, &record.Description, &record.SpecYAML, &record.CreatedBy, &record.CreatedAt); err != nil {
		return repo.ComponentVersionRecord{}, handleNotFound(err)
	}
	return record, nil
}

func (s *ComponentStore) ListVersions(ctx context.Context, name string) ([]repo.ComponentVersionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("component store not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("component name is required")
	}
	return s.queryVersions(ctx, selectComponentVersionsQuery, name)
}

// ListComponents returns the latest version of every component.
func (s *ComponentStore) ListComponents(ctx context.Context) ([]repo.ComponentVersionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("component store not initialized")
	}
	return s.queryVersions(ctx, selectLatestComponentsQuery)
}

func (s *ComponentStore) queryVersions(ctx context.Context, query string, args ...any) ([]repo.ComponentVersionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query component versions: %w", err)
	}
	defer rows.Close()

	records := make([]repo.ComponentVersionRecord, 0)
	for rows.Next() {
		var record repo.ComponentVersionRecord
		if err := rows.Scan(&record.ID, &record.Name, &record.Digest, &record.Description, &record.SpecYAML, &record.CreatedBy, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan component version: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate component versions: %w", err)
	}
	return records, nil
}
