package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"sosach/internal/model"
	"sosach/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultSkipPaths are never audited regardless of configuration.
var defaultSkipPaths = []string{"/health", "/swagger", "/favicon.ico"}

// ActorResolver reads the authenticated user off the request; nil means the
// request is anonymous and produces no audit record.
type ActorResolver func(c *gin.Context) *model.User

// Options tunes the interceptor per application.
type Options struct {
	// SkipPaths are extra path prefixes excluded from auditing,
	// on top of the built-in health/swagger/favicon list.
	SkipPaths []string
}

// Interceptor wraps request handling, reconstructs what changed and persists
// one audit record per request after the response has been delivered.
type Interceptor struct {
	repo     repository.AuditRepository
	detector *Detector
	actor    ActorResolver
	log      *zap.Logger
	skip     []string
	wg       sync.WaitGroup
}

func NewInterceptor(repo repository.AuditRepository, detector *Detector, actor ActorResolver, log *zap.Logger, opts Options) *Interceptor {
	return &Interceptor{
		repo:     repo,
		detector: detector,
		actor:    actor,
		log:      log,
		skip:     append(append([]string{}, defaultSkipPaths...), opts.SkipPaths...),
	}
}

// captureWriter duplicates the outgoing payload so post-processing can read
// the response the client already received.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware returns the gin handler to attach once per application. The
// request body, params, query and the target's before state are snapshotted
// ahead of the handler, and persistence happens in a goroutine after the
// response is written, so auditing can never delay or alter what the client
// sees.
func (i *Interceptor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || i.shouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody map[string]interface{}
		if c.Request.Body != nil {
			raw, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
				if len(raw) > 0 {
					_ = json.Unmarshal(raw, &requestBody)
				}
			}
		}

		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		query := map[string][]string(c.Request.URL.Query())

		classification := i.safeClassify(c.Request.Method, c.Request.URL.Path, params)

		// The before state only exists now. Once the handler runs, an
		// UPDATE has overwritten the row and a DELETE has removed it.
		oldData := i.detector.Before(c.Request.Context(),
			classification.Action, classification.Resource, classification.ResourceID)

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		executionTime := time.Since(start).Milliseconds()

		actor := i.actor(c)
		if actor == nil {
			// Anonymous traffic (including failed logins) is not recorded.
			return
		}

		rec := recordInput{
			actor:          *actor,
			classification: classification,
			method:         c.Request.Method,
			url:            c.Request.URL.String(),
			ip:             c.ClientIP(),
			userAgent:      c.Request.UserAgent(),
			statusCode:     writer.Status(),
			requestBody:    requestBody,
			responseBody:   append([]byte(nil), writer.body.Bytes()...),
			oldData:        oldData,
			params:         params,
			query:          query,
			executionTime:  executionTime,
		}

		i.wg.Add(1)
		go func() {
			defer i.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					i.log.Error("audit post-processing panicked", zap.Any("panic", r))
				}
			}()
			i.record(rec)
		}()
	}
}

// Wait drains in-flight audit writes; called on graceful shutdown and by tests.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

func (i *Interceptor) shouldSkip(path string) bool {
	for _, prefix := range i.skip {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type recordInput struct {
	actor          model.User
	classification Classification
	method         string
	url            string
	ip             string
	userAgent      string
	statusCode     int
	requestBody    map[string]interface{}
	responseBody   []byte
	oldData        map[string]interface{}
	params         map[string]string
	query          map[string][]string
	executionTime  int64
}

// record runs entirely off the request path. Every failure is logged for the
// operator and dropped: auditing is best-effort, at-most-once, and must never
// surface to the client.
func (i *Interceptor) record(in recordInput) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	classification := in.classification

	changes := i.detector.CaptureChanges(
		classification.Action, classification.ResourceID,
		in.requestBody, in.responseBody, in.oldData)

	resourceName := displayName(changes.NewData, changes.OldData)

	status := model.AuditStatusFailed
	if in.statusCode >= 200 && in.statusCode <= 299 {
		status = model.AuditStatusSuccess
	}

	errorMessage := ""
	if status == model.AuditStatusFailed {
		errorMessage = extractErrorMessage(in.responseBody)
	}

	entry := &model.AuditLog{
		UserID:        &in.actor.ID,
		UserInfo:      marshalActorInfo(in.actor),
		Action:        classification.Action,
		Resource:      classification.Resource,
		ResourceID:    changes.ResolvedID,
		ResourceName:  resourceName,
		Description:   Describe(classification.Action, classification.Resource, resourceName),
		OldData:       marshalJSON(changes.OldData),
		NewData:       marshalJSON(changes.NewData),
		IPAddress:     in.ip,
		UserAgent:     in.userAgent,
		Status:        status,
		ErrorMessage:  errorMessage,
		ExecutionTime: in.executionTime,
		Metadata: marshalJSON(map[string]interface{}{
			"method":      in.method,
			"url":         in.url,
			"status_code": in.statusCode,
			"params":      in.params,
			"query":       in.query,
		}),
	}

	if err := i.repo.Log(ctx, entry); err != nil {
		i.log.Error("failed to persist audit log",
			zap.String("action", classification.Action),
			zap.String("resource", classification.Resource),
			zap.Error(err))
	}
}

// safeClassify substitutes the default triple when a rule misbehaves; the
// failure is logged so it can be diagnosed, never propagated.
func (i *Interceptor) safeClassify(method, path string, params map[string]string) (cl Classification) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Warn("request classification failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Any("panic", r))
			cl = DefaultClassification()
		}
	}()
	return Classify(method, path, params)
}

// displayName pulls a human-readable identifier for the target entity out of
// the captured snapshots.
func displayName(snapshots ...map[string]interface{}) string {
	for _, snap := range snapshots {
		for _, key := range []string{"name", "title", "full_name", "fullName", "username", "code"} {
			if v, ok := snap[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}

// extractErrorMessage reads message/error out of a failed JSON response,
// falling back to a fixed string when the body is not parseable.
func extractErrorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error"} {
			if v, ok := payload[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return "Unknown error"
}

func marshalActorInfo(actor model.User) string {
	info := model.ActorInfo{
		FullName: actor.FullName,
		Email:    actor.Email,
		Role:     actor.Role,
	}
	if actor.Department != nil {
		info.Department = actor.Department.Name
	}
	if actor.Unit != nil {
		info.Unit = actor.Unit.Name
	}
	raw, _ := json.Marshal(info)
	return string(raw)
}

func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok && m == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
