package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"minishop/internal/repos"
)

type ImportStats struct {
	Inserted int
	Skipped  int
	Invalid  int
}

// Importer loads orders exported from the previous document store.
type Importer struct {
	Orders *repos.OrderRepo
	Log    *zap.Logger
}

func NewImporter(orders *repos.OrderRepo, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{Orders: orders, Log: logger}
}

// parseExport accepts either {"<id>": {...}, ...} or [{"id": "...", ...}, ...].
func parseExport(data []byte) ([]string, map[string]map[string]any, error) {
	data = bytes.TrimSpace(data)
	docs := map[string]map[string]any{}
	if len(data) > 0 && data[0] == '[' {
		var list []map[string]any
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, nil, fmt.Errorf("parse export: %w", err)
		}
		ids := make([]string, 0, len(list))
		for i, doc := range list {
			id, _ := doc["id"].(string)
			if id == "" {
				id = fmt.Sprintf("#%d", i)
			}
			docs[id] = doc
			ids = append(ids, id)
		}
		return ids, docs, nil
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, nil, fmt.Errorf("parse export: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, docs, nil
}

// Import inserts every decodable order whose id is not already stored. Documents that
// fail to decode are counted and logged, not fatal.
func (im *Importer) Import(ctx context.Context, data []byte) (ImportStats, error) {
	var st ImportStats
	ids, docs, err := parseExport(data)
	if err != nil {
		return st, err
	}
	for _, id := range ids {
		o, err := repos.DecodeLegacyOrder(id, docs[id])
		if err != nil {
			st.Invalid++
			im.Log.Warn("import: skip invalid order", zap.String("order_id", id), zap.Error(err))
			continue
		}
		exists, err := im.Orders.Exists(ctx, o.ID)
		if err != nil {
			return st, fmt.Errorf("import %s: %w", o.ID, err)
		}
		if exists {
			st.Skipped++
			continue
		}
		if err := im.Orders.Create(ctx, o); err != nil {
			return st, fmt.Errorf("import %s: %w", o.ID, err)
		}
		st.Inserted++
		im.Log.Debug("import: inserted", zap.String("order_id", o.ID), zap.String("status", string(o.Status)))
	}
	im.Log.Info("import finished",
		zap.Int("inserted", st.Inserted), zap.Int("skipped", st.Skipped), zap.Int("invalid", st.Invalid))
	return st, nil
}
