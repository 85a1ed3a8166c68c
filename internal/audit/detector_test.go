package audit

import (
	"context"
	"errors"
	"testing"

	"sosach/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	rows map[string]map[string]interface{}
}

func (s fakeSource) Snapshot(_ context.Context, id string) (map[string]interface{}, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return row, nil
}

func newTestDetector(rows map[string]map[string]interface{}) *Detector {
	return NewDetectorWithSources(map[string]SnapshotSource{
		model.ResourceUser: fakeSource{rows: rows},
	}, zap.NewNop())
}

func TestCaptureChangesCreate(t *testing.T) {
	d := newTestDetector(nil)

	body := map[string]interface{}{"username": "binh", "password": "secret"}
	response := []byte(`{"status":201,"data":{"id":"u-1","username":"binh"}}`)

	changes := d.CaptureChanges(model.ActionCreate, "", body, response, nil)

	assert.Equal(t, "u-1", changes.ResolvedID, "id resolved from response data")
	assert.Nil(t, changes.OldData)
	require.NotNil(t, changes.NewData)
	assert.Equal(t, "binh", changes.NewData["username"])
	_, hasPassword := changes.NewData["password"]
	assert.False(t, hasPassword, "password never enters the audit trail")
}

func TestCaptureChangesCreateTopLevelID(t *testing.T) {
	d := newTestDetector(nil)

	changes := d.CaptureChanges(model.ActionCreate, "",
		map[string]interface{}{"username": "an"}, []byte(`{"id":"u-9"}`), nil)
	assert.Equal(t, "u-9", changes.ResolvedID)

	changes = d.CaptureChanges(model.ActionCreate, "", nil, []byte(`not json`), nil)
	assert.Empty(t, changes.ResolvedID, "unparseable response leaves the id empty")
}

func TestBeforeReadsStoredState(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{
		"u-1": {"username": "binh", "full_name": "Nguyễn Văn Bình", "password": "hash"},
	})

	old := d.Before(context.Background(), model.ActionUpdate, model.ResourceUser, "u-1")
	require.NotNil(t, old)
	assert.Equal(t, "Nguyễn Văn Bình", old["full_name"])
	_, hasPassword := old["password"]
	assert.False(t, hasPassword)

	old = d.Before(context.Background(), model.ActionDelete, model.ResourceUser, "u-1")
	require.NotNil(t, old)
	assert.Equal(t, "binh", old["username"])
}

func TestBeforeIgnoresNonMutatingActions(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{"u-1": {"username": "binh"}})

	assert.Nil(t, d.Before(context.Background(), model.ActionView, model.ResourceUser, "u-1"))
	assert.Nil(t, d.Before(context.Background(), model.ActionCreate, model.ResourceUser, "u-1"))
	assert.Nil(t, d.Before(context.Background(), model.ActionUpdate, model.ResourceUser, ""))
}

func TestBeforeLookupFailureIsSwallowed(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{})

	assert.Nil(t, d.Before(context.Background(), model.ActionDelete, model.ResourceUser, "gone"))
}

func TestBeforeUnmappedResource(t *testing.T) {
	d := newTestDetector(nil)

	assert.Nil(t, d.Before(context.Background(), model.ActionUpdate, model.ResourceSystem, "x"))
}

func TestCaptureChangesUpdate(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{
		"u-1": {"username": "binh", "full_name": "Nguyễn Văn Bình", "password": "hash"},
	})

	// The before state is read ahead of the mutation and handed back in.
	old := d.Before(context.Background(), model.ActionUpdate, model.ResourceUser, "u-1")
	body := map[string]interface{}{"full_name": "Nguyễn Văn B"}
	changes := d.CaptureChanges(model.ActionUpdate, "u-1", body, nil, old)

	require.NotNil(t, changes.OldData)
	assert.Equal(t, "Nguyễn Văn Bình", changes.OldData["full_name"])
	_, hasPassword := changes.OldData["password"]
	assert.False(t, hasPassword)
	assert.Equal(t, "Nguyễn Văn B", changes.NewData["full_name"])
}

func TestCaptureChangesDelete(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{
		"u-1": {"username": "binh"},
	})

	old := d.Before(context.Background(), model.ActionDelete, model.ResourceUser, "u-1")
	changes := d.CaptureChanges(model.ActionDelete, "u-1", nil, nil, old)
	require.NotNil(t, changes.OldData)
	assert.Equal(t, "binh", changes.OldData["username"])
	assert.Nil(t, changes.NewData)
}

func TestCaptureChangesMissingBeforeState(t *testing.T) {
	d := newTestDetector(nil)

	changes := d.CaptureChanges(model.ActionDelete, "gone", nil, nil, nil)
	assert.Nil(t, changes.OldData)
	assert.Equal(t, "gone", changes.ResolvedID)
}

func TestCaptureChangesViewCapturesNothing(t *testing.T) {
	d := newTestDetector(map[string]map[string]interface{}{"u-1": {"username": "binh"}})

	changes := d.CaptureChanges(model.ActionView, "u-1",
		map[string]interface{}{"ignored": true}, nil, nil)
	assert.Nil(t, changes.OldData)
	assert.Nil(t, changes.NewData)
}
