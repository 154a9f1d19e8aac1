// Package api serves the builders and the service layer over HTTP. Every
// response is either {"data": ...} or {"error": true, "message": ...}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/history"
	"github.com/sadopc/sqlcraft/internal/service"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

// Backend is the part of *service.Service the handlers use.
type Backend interface {
	Ping(ctx context.Context) (*service.Status, error)
	Tables(ctx context.Context) ([]string, error)
	Schema(ctx context.Context, table string) (*service.TableSchema, error)
	Query(ctx context.Context, sql string) (*adapter.QueryResult, error)
	Browse(ctx context.Context, req service.BrowseRequest) (*service.BrowseResult, error)
	Row(ctx context.Context, table string, id any) (map[string]any, error)
	InsertRow(ctx context.Context, table string, data map[string]any) (*adapter.QueryResult, error)
	UpdateRow(ctx context.Context, table string, id any, data map[string]any) (*adapter.QueryResult, error)
	DeleteRow(ctx context.Context, table string, id any) (*adapter.QueryResult, error)
	DeleteRows(ctx context.Context, table string, ids []any) (*service.BulkResult, error)
	UpdateWhere(ctx context.Context, table string, data map[string]any, conds []sqlbuild.Condition) (*adapter.QueryResult, error)
	DeleteWhere(ctx context.Context, table string, conds []sqlbuild.Condition) (*adapter.QueryResult, error)
	PlanAlter(ctx context.Context, table string, actions []sqlbuild.Action) (*service.AlterPlan, error)
	Alter(ctx context.Context, table string, ops []sqlbuild.AlterOperation) error
	CreateTable(ctx context.Context, ct sqlbuild.CreateTable) (string, error)
	History(ctx context.Context, f history.Filter) ([]history.Entry, error)
}

var _ Backend = (*service.Service)(nil)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const ctxKeyRequestID = "request_id"

// Handler holds the HTTP handlers.
type Handler struct {
	svc Backend
}

// NewHandler creates a Handler over svc.
func NewHandler(svc Backend) *Handler {
	return &Handler{svc: svc}
}

// NewRouter returns an engine with logging, panic recovery, request ids
// and every route registered.
func NewRouter(svc Backend) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())
	NewHandler(svc).Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/ping", h.Ping)
	r.GET("/tables", h.Tables)
	r.GET("/schema", h.Schema)
	r.POST("/query", h.Query)

	r.GET("/browse", h.BrowseQuery)
	r.POST("/browse", h.Browse)

	r.GET("/row", h.GetRow)
	r.POST("/row", h.InsertRow)
	r.PUT("/row", h.UpdateRow)
	r.DELETE("/row", h.DeleteRow)

	rows := r.Group("/rows")
	rows.POST("/delete", h.DeleteRows)
	rows.POST("/update-where", h.UpdateWhere)
	rows.POST("/delete-where", h.DeleteWhere)

	r.POST("/alter", h.Alter)
	r.POST("/alter/plan", h.PlanAlter)
	r.POST("/create", h.CreateTable)

	build := r.Group("/build")
	build.POST("/select", h.BuildSelect)
	build.POST("/update", h.BuildUpdate)
	build.POST("/create", h.BuildCreate)

	r.GET("/history", h.History)
	r.POST("/codegen", h.Codegen)
}

// RequestID tags each request with an id, reusing the caller's
// X-Request-ID when present, and passes it to the service layer.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func statusFor(err error) int {
	switch {
	case sqlbuild.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRowNotFound):
		return http.StatusNotFound
	case errors.Is(err, adapter.ErrUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := service.CleanError(err)
	if code >= http.StatusInternalServerError {
		log.Printf("api: [%d] %s %s (%s): %v", code, c.Request.Method, c.Request.URL.Path, c.GetString(ctxKeyRequestID), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": true, "message": msg})
}

// bind decodes the JSON body into obj and answers 400 when it cannot.
func bind(c *gin.Context, obj any) bool {
	if err := decodeJSON(c.Request.Body, obj); err != nil {
		respondError(c, &sqlbuild.ValidationError{Field: "body", Message: err.Error()})
		return false
	}
	return true
}

// decodeJSON decodes one JSON document keeping numbers as json.Number, so
// BIGINT keys and values reach the builders with every digit.
func decodeJSON(r io.Reader, obj any) error {
	if r == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
