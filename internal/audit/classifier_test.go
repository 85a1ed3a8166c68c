package audit

import (
	"testing"

	"sosach/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		method   string
		path     string
		params   map[string]string
		want     Classification
	}{
		{
			name:   "login overrides the method table",
			method: "POST",
			path:   "/api/auth/login",
			want:   Classification{Action: model.ActionLogin, Resource: model.ResourceAuth},
		},
		{
			name:   "logout",
			method: "POST",
			path:   "/api/auth/logout",
			want:   Classification{Action: model.ActionLogout, Resource: model.ResourceAuth},
		},
		{
			name:   "create user",
			method: "POST",
			path:   "/api/users",
			want:   Classification{Action: model.ActionCreate, Resource: model.ResourceUser},
		},
		{
			name:   "update user carries the path id",
			method: "PUT",
			path:   "/api/users/abc-123",
			params: map[string]string{"id": "abc-123"},
			want:   Classification{Action: model.ActionUpdate, Resource: model.ResourceUser, ResourceID: "abc-123"},
		},
		{
			name:   "patch maps to update",
			method: "PATCH",
			path:   "/api/books/b1",
			params: map[string]string{"id": "b1"},
			want:   Classification{Action: model.ActionUpdate, Resource: model.ResourceBook, ResourceID: "b1"},
		},
		{
			name:   "delete book",
			method: "DELETE",
			path:   "/api/books/b1",
			params: map[string]string{"id": "b1"},
			want:   Classification{Action: model.ActionDelete, Resource: model.ResourceBook, ResourceID: "b1"},
		},
		{
			name:   "task assignments win over shorter fragments",
			method: "POST",
			path:   "/api/task-assignments",
			want:   Classification{Action: model.ActionCreate, Resource: model.ResourceTaskAssignment},
		},
		{
			name:   "entries nested under books resolve to the entry resource",
			method: "POST",
			path:   "/api/books/b1/entries",
			params: map[string]string{"id": "b1"},
			want:   Classification{Action: model.ActionCreate, Resource: model.ResourceBookEntry, ResourceID: "b1"},
		},
		{
			name:   "flat entry routes",
			method: "PUT",
			path:   "/api/book-entries/e1",
			params: map[string]string{"id": "e1"},
			want:   Classification{Action: model.ActionUpdate, Resource: model.ResourceBookEntry, ResourceID: "e1"},
		},
		{
			name:   "reports",
			method: "GET",
			path:   "/api/reports/statistics",
			want:   Classification{Action: model.ActionView, Resource: model.ResourceReport},
		},
		{
			name:   "unmatched path falls back to system",
			method: "GET",
			path:   "/api/something-else",
			want:   Classification{Action: model.ActionView, Resource: model.ResourceSystem},
		},
		{
			name:   "unknown method falls back to view",
			method: "TRACE",
			path:   "/api/users",
			want:   Classification{Action: model.ActionView, Resource: model.ResourceUser},
		},
		{
			name:   "lowercase method is normalized",
			method: "post",
			path:   "/api/units",
			want:   Classification{Action: model.ActionCreate, Resource: model.ResourceUnit},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.method, tc.path, tc.params))
		})
	}
}

func TestDefaultClassification(t *testing.T) {
	got := DefaultClassification()
	assert.Equal(t, model.ActionView, got.Action)
	assert.Equal(t, model.ResourceSystem, got.Resource)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Đăng nhập vào hệ thống", Describe(model.ActionLogin, model.ResourceAuth, ""))
	assert.Equal(t, "Đăng xuất khỏi hệ thống", Describe(model.ActionLogout, model.ResourceAuth, ""))
	assert.Contains(t, Describe(model.ActionCreate, model.ResourceBook, "Sổ trực ban"), "Sổ trực ban")
}
