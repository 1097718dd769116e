package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/rcliao/mcp-memory/internal/model"
)

// relationsKey is the metadata entry holding relation labels keyed by target id.
const relationsKey = "relations"

// Link adds ToID to FromID's refs. A non-empty relation label is recorded in
// metadata under relations[ToID]. A missing FromID reports false.
func (s *SQLiteStore) Link(ctx context.Context, p LinkParams) (bool, error) {
	return s.editSet(ctx, p.FromID, func(m *model.Memory) (UpdateParams, error) {
		up := UpdateParams{ID: p.FromID, Refs: model.Union(m.Refs, []string{p.ToID})}
		if p.Relation == "" {
			return up, nil
		}

		var relations json.RawMessage
		model.MetadataValue(m.Metadata, relationsKey, &relations)
		relations, err := model.WithMetadataValue(relations, p.ToID, p.Relation)
		if errors.Is(err, model.ErrMetadataNotObject) {
			relations, err = model.WithMetadataValue(nil, p.ToID, p.Relation)
		}
		if err != nil {
			return up, goerr.Wrap(err, "record relation", goerr.V("from", p.FromID))
		}
		up.Metadata, err = model.WithMetadataValue(m.Metadata, relationsKey, relations)
		if err != nil {
			return up, goerr.Wrap(err, "record relation", goerr.V("from", p.FromID))
		}
		return up, nil
	})
}

// Relations returns the relation labels recorded on m, keyed by target id.
func Relations(m *model.Memory) map[string]string {
	out := map[string]string{}
	var relations map[string]any
	model.MetadataValue(m.Metadata, relationsKey, &relations)
	for k, v := range relations {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
