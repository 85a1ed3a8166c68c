package audit

import (
	"net/http"
	"strings"

	"sosach/internal/model"
)

// Classification is the semantic triple an HTTP request maps to.
type Classification struct {
	Action     string
	Resource   string
	ResourceID string
}

// DefaultClassification is substituted when classification fails, so a broken
// rule can never break audit logging for the request.
func DefaultClassification() Classification {
	return Classification{Action: model.ActionView, Resource: model.ResourceSystem}
}

type routeRule struct {
	fragment string
	resource string
}

// Ordered substring rules; first match wins. "task-assignments" sits first so
// it is not shadowed by shorter fragments, and entry routes are checked before
// book routes because entries nest under /books/:id/entries.
var routeRules = []routeRule{
	{"/task-assignments", model.ResourceTaskAssignment},
	{"/book-entries", model.ResourceBookEntry},
	{"/entries", model.ResourceBookEntry},
	{"/users", model.ResourceUser},
	{"/departments", model.ResourceDepartment},
	{"/units", model.ResourceUnit},
	{"/ranks", model.ResourceRank},
	{"/positions", model.ResourcePosition},
	{"/books", model.ResourceBook},
	{"/notifications", model.ResourceNotification},
	{"/reports", model.ResourceReport},
}

var methodActions = map[string]string{
	http.MethodPost:   model.ActionCreate,
	http.MethodPut:    model.ActionUpdate,
	http.MethodPatch:  model.ActionUpdate,
	http.MethodDelete: model.ActionDelete,
	http.MethodGet:    model.ActionView,
}

// Classify maps an HTTP method and path to an audit action/resource triple.
// Pure and side-effect free. Auth paths override the method table; everything
// unmatched falls back to the SYSTEM resource.
func Classify(method, path string, params map[string]string) Classification {
	if strings.Contains(path, "/auth/login") {
		return Classification{Action: model.ActionLogin, Resource: model.ResourceAuth}
	}
	if strings.Contains(path, "/auth/logout") {
		return Classification{Action: model.ActionLogout, Resource: model.ResourceAuth}
	}

	action, ok := methodActions[strings.ToUpper(method)]
	if !ok {
		action = model.ActionView
	}

	resource := model.ResourceSystem
	for _, rule := range routeRules {
		if strings.Contains(path, rule.fragment) {
			resource = rule.resource
			break
		}
	}

	return Classification{
		Action:     action,
		Resource:   resource,
		ResourceID: params["id"],
	}
}
