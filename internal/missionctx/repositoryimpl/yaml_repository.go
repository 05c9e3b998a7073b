package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/cerr"
	"github.com/opsdeck/missiond/pkg/storage"
)

const contextsPrefix = "contexts"

// YAMLRepository stores one YAML document per mission context.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(missionID string) string {
	return fmt.Sprintf("%s/%s.yaml", contextsPrefix, missionID)
}

func (r *YAMLRepository) Save(ctx context.Context, mc *missionctx.MissionContext) error {
	data, err := yaml.Marshal(mc)
	if err != nil {
		return cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("failed to marshal context: %w", err))
	}
	if err := r.storage.Write(ctx, path(mc.MissionID), data); err != nil {
		return cerr.WrapStorageWriteError("mission context", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, missionID string) (*missionctx.MissionContext, error) {
	data, err := r.storage.Read(ctx, path(missionID))
	if err != nil {
		return nil, cerr.WrapStorageReadError("mission context", err)
	}
	var mc missionctx.MissionContext
	if err := yaml.Unmarshal(data, &mc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("failed to unmarshal context: %w", err))
	}
	return &mc, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, missionID string) error {
	if err := r.storage.Delete(ctx, path(missionID)); err != nil {
		return cerr.WrapStorageDeleteError("mission context", err)
	}
	return nil
}
