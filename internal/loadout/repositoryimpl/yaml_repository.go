package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/pkg/cerr"
	"github.com/opsdeck/missiond/pkg/storage"
)

const loadoutsPrefix = "loadouts"

// YAMLRepository reads loadout definitions, one YAML document per loadout.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func (r *YAMLRepository) LoadAll(ctx context.Context) ([]*loadout.ToolLoadout, error) {
	paths, err := r.storage.List(ctx, loadoutsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tool loadouts", err)
	}
	sort.Strings(paths)

	var all []*loadout.ToolLoadout
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			return nil, cerr.WrapStorageReadError("tool loadout", err)
		}
		var l loadout.ToolLoadout
		if err := yaml.Unmarshal(data, &l); err != nil {
			return nil, cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("failed to unmarshal loadout %s: %w", p, err))
		}
		if l.ID == "" {
			return nil, cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("loadout %s has no id", p))
		}
		all = append(all, &l)
	}
	return all, nil
}
