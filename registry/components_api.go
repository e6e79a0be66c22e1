package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kiln-labs/kiln-go/internal/platform/auditlog"
	"github.com/kiln-labs/kiln-go/internal/platform/auth"
	"github.com/kiln-labs/kiln-go/internal/repo"
	"github.com/kiln-labs/kiln-go/internal/speccodec"
)

const maxComponentBodyBytes = 1 << 20

type componentVersionResponse struct {
	Name        string    `json:"name"`
	Digest      string    `json:"digest"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func versionResponse(record repo.ComponentVersionRecord) componentVersionResponse {
	return componentVersionResponse{
		Name:        record.Name,
		Digest:      record.Digest,
		Description: strings.TrimSpace(record.Description),
		CreatedBy:   record.CreatedBy,
		CreatedAt:   record.CreatedAt,
	}
}

func objectKey(name, digest string) string {
	return name + "/" + digest + ".yaml"
}

func (api *registryAPI) handlePublishComponent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxComponentBodyBytes))
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_body")
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		api.writeError(w, r, http.StatusBadRequest, "empty_body")
		return
	}

	spec, err := speccodec.Load(body)
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_component_spec")
		return
	}
	if err := spec.Validate(); err != nil {
		api.writeError(w, r, http.StatusUnprocessableEntity, "component_spec_invalid")
		return
	}

	// The stored definition and its digest come from the canonical
	// re-encoding, so formatting differences do not mint new versions.
	canonical, err := speccodec.Dump(spec)
	if err != nil {
		api.logger.Error("canonicalize component", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	sum := sha256.Sum256(canonical)
	digest := "sha256:" + hex.EncodeToString(sum[:])

	createdBy := ""
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		createdBy = identity.Subject
	}

	record, created, err := api.store.CreateVersion(r.Context(), spec.Name, digest, spec.Description, canonical, createdBy)
	if err != nil {
		api.logger.Error("create component version", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	if created {
		if err := api.objects.Put(r.Context(), objectKey(record.Name, record.Digest), canonical); err != nil {
			api.logger.Error("store component object", "error", err, "name", record.Name, "digest", record.Digest)
			api.writeError(w, r, http.StatusInternalServerError, "internal_error")
			return
		}
		api.auditPublish(r, record)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	api.writeJSON(w, status, versionResponse(record))
}

func (api *registryAPI) auditPublish(r *http.Request, record repo.ComponentVersionRecord) {
	if api.db == nil {
		return
	}
	actor := record.CreatedBy
	if strings.TrimSpace(actor) == "" {
		actor = "anonymous"
	}
	_, err := auditlog.Insert(r.Context(), api.db, auditlog.Event{
		OccurredAt:   time.Now().UTC(),
		Actor:        actor,
		Action:       "component.publish",
		ResourceType: "component_version",
		ResourceID:   record.Name + "@" + record.Digest,
		RequestID:    r.Header.Get("X-Request-Id"),
		IP:           requestIP(r.RemoteAddr),
		UserAgent:    r.UserAgent(),
		Payload: map[string]any{
			"name":   record.Name,
			"digest": record.Digest,
		},
	})
	if err != nil {
		api.logger.Warn("audit publish failed", "error", err, "name", record.Name)
	}
}

func (api *registryAPI) handleListComponents(w http.ResponseWriter, r *http.Request) {
	records, err := api.store.ListComponents(r.Context())
	if err != nil {
		api.logger.Error("list components", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	out := make([]componentVersionResponse, 0, len(records))
	for _, record := range records {
		out = append(out, versionResponse(record))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"components": out})
}

func (api *registryAPI) handleListComponentVersions(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	records, err := api.store.ListVersions(r.Context(), name)
	if err != nil {
		api.logger.Error("list component versions", "error", err, "name", name)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	if len(records) == 0 {
		api.writeError(w, r, http.StatusNotFound, "component_not_found")
		return
	}
	out := make([]componentVersionResponse, 0, len(records))
	for _, record := range records {
		out = append(out, versionResponse(record))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"name": name, "versions": out})
}

func (api *registryAPI) handleGetComponentVersion(w http.ResponseWriter, r *http.Request) {
	record, ok := api.lookupVersion(w, r)
	if !ok {
		return
	}
	api.writeJSON(w, http.StatusOK, versionResponse(record))
}

func (api *registryAPI) handleDownloadComponentVersion(w http.ResponseWriter, r *http.Request) {
	record, ok := api.lookupVersion(w, r)
	if !ok {
		return
	}
	data, err := api.objects.Get(r.Context(), objectKey(record.Name, record.Digest))
	if err != nil {
		// The database row is authoritative; the object store is a mirror.
		api.logger.Warn("component object missing, serving database copy", "error", err, "name", record.Name, "digest", record.Digest)
		data = record.SpecYAML
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// lookupVersion resolves {name}/{digest}; the digest "latest" selects the
// newest version.
func (api *registryAPI) lookupVersion(w http.ResponseWriter, r *http.Request) (repo.ComponentVersionRecord, bool) {
	name := r.PathValue("name")
	digest := r.PathValue("digest")

	var record repo.ComponentVersionRecord
	var err error
	if digest == "latest" {
		record, err = api.store.GetLatest(r.Context(), name)
	} else {
		record, err = api.store.GetVersion(r.Context(), name, digest)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "component_not_found")
			return repo.ComponentVersionRecord{}, false
		}
		api.logger.Error("get component version", "error", err, "name", name, "digest", digest)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return repo.ComponentVersionRecord{}, false
	}
	return record, true
}
