package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/kiln-labs/kiln-go/internal/repo"
)

// componentStore is the persistence surface the API needs; satisfied by
// the postgres store and by fakes in tests.
type componentStore interface {
	CreateVersion(ctx context.Context, name, digest, description string, specYAML []byte, createdBy string) (repo.ComponentVersionRecord, bool, error)
	GetVersion(ctx context.Context, name, digest string) (repo.ComponentVersionRecord, error)
	GetLatest(ctx context.Context, name string) (repo.ComponentVersionRecord, error)
	ListVersions(ctx context.Context, name string) ([]repo.ComponentVersionRecord, error)
	ListComponents(ctx context.Context) ([]repo.ComponentVersionRecord, error)
}

// objectStorage holds the raw component definitions.
type objectStorage interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type registryAPI struct {
	logger  *slog.Logger
	db      *sql.DB
	store   componentStore
	objects objectStorage
}

func newRegistryAPI(logger *slog.Logger, db *sql.DB, store componentStore, objects objectStorage) *registryAPI {
	return &registryAPI{
		logger:  logger,
		db:      db,
		store:   store,
		objects: objects,
	}
}

func (api *registryAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/components", api.handlePublishComponent)
	mux.HandleFunc("GET /v1/components", api.handleListComponents)
	mux.HandleFunc("GET /v1/components/{name}", api.handleListComponentVersions)
	mux.HandleFunc("GET /v1/components/{name}/{digest}", api.handleGetComponentVersion)
	mux.HandleFunc("GET /v1/components/{name}/{digest}/download", api.handleDownloadComponentVersion)
}

func (api *registryAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *registryAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func requestIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func newMinioStorage(client *minio.Client, bucket string) *minioStorage {
	return &minioStorage{client: client, bucket: bucket}
}

func (s *minioStorage) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/x-yaml",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *minioStorage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = obj.Close() }()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}
