package audit

import (
	"context"
	"encoding/json"

	"sosach/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnapshotSource fetches the current stored state of one resource by id.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id string) (map[string]interface{}, error)
}

// TableSource reads a single row from a table into a generic map.
type TableSource struct {
	DB    *gorm.DB
	Table string
}

func (s TableSource) Snapshot(ctx context.Context, id string) (map[string]interface{}, error) {
	row := map[string]interface{}{}
	err := s.DB.WithContext(ctx).Table(s.Table).Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Changes is the before/after state reconstructed for one audited operation.
type Changes struct {
	OldData    map[string]interface{}
	NewData    map[string]interface{}
	ResolvedID string
}

// Detector reconstructs what changed from the request body, the response
// payload and a point lookup against the store. The resource-to-source table
// is fixed at construction; unmapped resources (AUTH, SYSTEM, REPORT) simply
// yield no old data.
type Detector struct {
	sources map[string]SnapshotSource
	log     *zap.Logger
}

// NewDetector builds the static resource-to-table mapping over one database.
func NewDetector(db *gorm.DB, log *zap.Logger) *Detector {
	return &Detector{
		log: log,
		sources: map[string]SnapshotSource{
			model.ResourceUser:           TableSource{DB: db, Table: "users"},
			model.ResourceDepartment:     TableSource{DB: db, Table: "departments"},
			model.ResourceUnit:           TableSource{DB: db, Table: "units"},
			model.ResourceRank:           TableSource{DB: db, Table: "ranks"},
			model.ResourcePosition:       TableSource{DB: db, Table: "positions"},
			model.ResourceBook:           TableSource{DB: db, Table: "books"},
			model.ResourceBookEntry:      TableSource{DB: db, Table: "book_entries"},
			model.ResourceNotification:   TableSource{DB: db, Table: "notifications"},
			model.ResourceTaskAssignment: TableSource{DB: db, Table: "task_assignments"},
		},
	}
}

// NewDetectorWithSources injects an explicit source table (used by tests).
func NewDetectorWithSources(sources map[string]SnapshotSource, log *zap.Logger) *Detector {
	return &Detector{sources: sources, log: log}
}

// Before reads the stored state of the target row. It must run on the
// request path, ahead of the handler: an UPDATE overwrites the row and a
// DELETE removes it, so the only moment the before state exists is before
// the handler executes. Other actions and unmapped resources (AUTH, SYSTEM,
// REPORT) yield nil. Lookup failures are swallowed, the target may never
// have existed and auditing must not fail the request.
func (d *Detector) Before(ctx context.Context, action, resource, resourceID string) map[string]interface{} {
	if action != model.ActionUpdate && action != model.ActionDelete {
		return nil
	}
	if resourceID == "" {
		return nil
	}
	source, ok := d.sources[resource]
	if !ok {
		return nil
	}
	old, err := source.Snapshot(ctx, resourceID)
	if err != nil {
		if d.log != nil {
			d.log.Debug("audit snapshot lookup failed",
				zap.String("resource", resource),
				zap.String("resource_id", resourceID),
				zap.Error(err))
		}
		return nil
	}
	return stripPassword(old)
}

// CaptureChanges assembles the snapshots for the classified operation.
// oldData is the state prefetched by Before; by the time this runs the store
// already holds the post-handler state, so no lookup happens here. Passwords
// are always stripped.
func (d *Detector) CaptureChanges(action, resourceID string, requestBody map[string]interface{}, responseBody []byte, oldData map[string]interface{}) Changes {
	changes := Changes{ResolvedID: resourceID}

	if action == model.ActionCreate || action == model.ActionUpdate {
		changes.NewData = stripPassword(requestBody)
	}

	if action == model.ActionCreate {
		if id := resolveCreatedID(responseBody); id != "" {
			changes.ResolvedID = id
		}
	}

	if action == model.ActionUpdate || action == model.ActionDelete {
		changes.OldData = oldData
	}

	return changes
}

// resolveCreatedID digs the newly assigned identifier out of the response
// payload: data.id / data._id, then top-level id / _id.
func resolveCreatedID(responseBody []byte) string {
	if len(responseBody) == 0 {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(responseBody, &payload); err != nil {
		return ""
	}

	if data, ok := payload["data"].(map[string]interface{}); ok {
		if id := idField(data); id != "" {
			return id
		}
	}
	return idField(payload)
}

func idField(m map[string]interface{}) string {
	for _, key := range []string{"id", "_id"} {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// stripPassword shallow-copies the snapshot without any password field.
func stripPassword(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "password" {
			continue
		}
		out[k] = v
	}
	return out
}
