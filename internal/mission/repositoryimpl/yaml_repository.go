package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/pkg/cerr"
	"github.com/opsdeck/missiond/pkg/storage"
)

const (
	activePrefix  = "missions/active"
	archivePrefix = "missions/archive"
)

// YAMLRepository stores one YAML document per mission, keyed by mission id.
// Completion moves the document from the active prefix to the archive
// prefix; it is never left behind in both.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func activePath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", activePrefix, id)
}

func archivePath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", archivePrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, m *mission.Mission) error {
	exists, err := r.storage.Exists(ctx, activePath(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("mission", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "mission already exists", nil)
	}
	return r.write(ctx, activePath(m.ID), m)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*mission.Mission, error) {
	return r.read(ctx, activePath(id))
}

func (r *YAMLRepository) Update(ctx context.Context, m *mission.Mission) error {
	exists, err := r.storage.Exists(ctx, activePath(m.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("mission", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "mission not found", nil)
	}
	return r.write(ctx, activePath(m.ID), m)
}

func (r *YAMLRepository) ListActive(ctx context.Context) ([]*mission.Mission, error) {
	return r.list(ctx, activePrefix)
}

func (r *YAMLRepository) ListArchived(ctx context.Context) ([]*mission.Mission, error) {
	return r.list(ctx, archivePrefix)
}

func (r *YAMLRepository) GetArchived(ctx context.Context, id string) (*mission.Mission, error) {
	return r.read(ctx, archivePath(id))
}

// Archive writes the mission under the archive prefix and removes the
// active document. The archive write happens first so a crash between the
// two steps leaves a duplicate, never a loss.
func (r *YAMLRepository) Archive(ctx context.Context, m *mission.Mission) error {
	if err := r.write(ctx, archivePath(m.ID), m); err != nil {
		return err
	}
	if err := r.storage.Delete(ctx, activePath(m.ID)); err != nil {
		return cerr.WrapStorageDeleteError("mission", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, path string, m *mission.Mission) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("failed to marshal mission: %w", err))
	}
	if err := r.storage.Write(ctx, path, data); err != nil {
		return cerr.WrapStorageWriteError("mission", err)
	}
	return nil
}

func (r *YAMLRepository) read(ctx context.Context, path string) (*mission.Mission, error) {
	data, err := r.storage.Read(ctx, path)
	if err != nil {
		return nil, cerr.WrapStorageReadError("mission", err)
	}
	var m mission.Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("failed to unmarshal mission: %w", err))
	}
	return &m, nil
}

func (r *YAMLRepository) list(ctx context.Context, prefix string) ([]*mission.Mission, error) {
	paths, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("missions", err)
	}
	sort.Strings(paths)

	var all []*mission.Mission
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var m mission.Mission
		if err := yaml.Unmarshal(data, &m); err != nil {
			continue
		}
		all = append(all, &m)
	}
	return all, nil
}
