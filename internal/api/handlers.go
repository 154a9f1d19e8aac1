package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/sqlcraft/internal/adapter"
	"github.com/sadopc/sqlcraft/internal/codegen"
	"github.com/sadopc/sqlcraft/internal/history"
	"github.com/sadopc/sqlcraft/internal/service"
	"github.com/sadopc/sqlcraft/internal/sqlbuild"
)

// WarningUnscopedUpdate accompanies an UPDATE preview without WHERE.
const WarningUnscopedUpdate = "No WHERE clause: this UPDATE will modify every row in the table"

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	RowCount   int64            `json:"row_count"`
	IsSelect   bool             `json:"is_select"`
	Truncated  bool             `json:"truncated,omitempty"`
	Message    string           `json:"message,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

func newQueryResponse(res *adapter.QueryResult) queryResponse {
	cols := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = c.Name
	}
	return queryResponse{
		Columns:    cols,
		Rows:       res.Maps(),
		RowCount:   res.RowCount,
		IsSelect:   res.IsSelect,
		Truncated:  res.Truncated,
		Message:    res.Message,
		DurationMS: res.Duration.Milliseconds(),
	}
}

type rowRequest struct {
	Table string         `json:"table"`
	ID    any            `json:"id"`
	Data  map[string]any `json:"data"`
}

type rowsRequest struct {
	Table string `json:"table"`
	IDs   []any  `json:"ids"`
}

type whereRequest struct {
	Table      string               `json:"table"`
	Data       map[string]any       `json:"data"`
	Conditions []sqlbuild.Condition `json:"conditions"`
}

type alterRequest struct {
	Table      string                    `json:"table"`
	Operations []sqlbuild.AlterOperation `json:"operations"`
}

type planRequest struct {
	Table   string            `json:"table"`
	Actions []sqlbuild.Action `json:"actions"`
}

type codegenRequest struct {
	Table     string `json:"table"`
	ClassName string `json:"class"`
	Namespace string `json:"namespace"`
}

// Ping reports the connected adapter and database.
func (h *Handler) Ping(c *gin.Context) {
	st, err := h.svc.Ping(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, st)
}

func (h *Handler) Tables(c *gin.Context) {
	names, err := h.svc.Tables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, names)
}

func (h *Handler) Schema(c *gin.Context) {
	s, err := h.svc.Schema(c.Request.Context(), c.Query("table"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, s)
}

// Query executes raw SQL exactly as sent.
func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Query(c.Request.Context(), req.SQL)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

// BrowseQuery reads the page from the query string. Filters, if any, are a
// JSON array in the filters parameter.
func (h *Handler) BrowseQuery(c *gin.Context) {
	var req service.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, &sqlbuild.ValidationError{Field: "query", Message: err.Error()})
		return
	}
	if raw := c.Query("filters"); raw != "" {
		if err := decodeJSON(strings.NewReader(raw), &req.Filters); err != nil {
			respondError(c, &sqlbuild.ValidationError{Field: "filters", Message: err.Error()})
			return
		}
	}
	h.browse(c, req)
}

func (h *Handler) Browse(c *gin.Context) {
	var req service.BrowseRequest
	if !bind(c, &req) {
		return
	}
	h.browse(c, req)
}

func (h *Handler) browse(c *gin.Context, req service.BrowseRequest) {
	res, err := h.svc.Browse(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, res)
}

// GetRow loads one row for the row viewer. A composite key is passed as a
// JSON object in id.
func (h *Handler) GetRow(c *gin.Context) {
	var id any = c.Query("id")
	if raw := c.Query("id"); strings.HasPrefix(raw, "{") {
		var key map[string]any
		if err := decodeJSON(strings.NewReader(raw), &key); err != nil {
			respondError(c, &sqlbuild.ValidationError{Field: "id", Message: err.Error()})
			return
		}
		id = key
	} else if raw == "" {
		id = nil
	}
	row, err := h.svc.Row(c.Request.Context(), c.Query("table"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, row)
}

func (h *Handler) InsertRow(c *gin.Context) {
	var req rowRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.InsertRow(c.Request.Context(), req.Table, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

func (h *Handler) UpdateRow(c *gin.Context) {
	var req rowRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.UpdateRow(c.Request.Context(), req.Table, req.ID, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

func (h *Handler) DeleteRow(c *gin.Context) {
	var req rowRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.DeleteRow(c.Request.Context(), req.Table, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

// DeleteRows deletes the selected rows one by one and reports how many
// succeeded. Per-row failures do not fail the request.
func (h *Handler) DeleteRows(c *gin.Context) {
	var req rowsRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.DeleteRows(c.Request.Context(), req.Table, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, res)
}

func (h *Handler) UpdateWhere(c *gin.Context) {
	var req whereRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.UpdateWhere(c.Request.Context(), req.Table, req.Data, req.Conditions)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

func (h *Handler) DeleteWhere(c *gin.Context) {
	var req whereRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.DeleteWhere(c.Request.Context(), req.Table, req.Conditions)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, newQueryResponse(res))
}

// Alter applies a batch of schema operations in one call.
func (h *Handler) Alter(c *gin.Context) {
	var req alterRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Alter(c.Request.Context(), req.Table, req.Operations); err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"message": "Table " + req.Table + " altered", "operations": len(req.Operations)})
}

// PlanAlter previews the operations for schema-editor actions.
func (h *Handler) PlanAlter(c *gin.Context) {
	var req planRequest
	if !bind(c, &req) {
		return
	}
	plan, err := h.svc.PlanAlter(c.Request.Context(), req.Table, req.Actions)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, plan)
}

func (h *Handler) CreateTable(c *gin.Context) {
	var req sqlbuild.CreateTable
	if !bind(c, &req) {
		return
	}
	sql, err := h.svc.CreateTable(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"sql": sql, "message": "Table " + strings.TrimSpace(req.Name) + " created"})
}

// BuildSelect renders the visual query builder state. Nothing is executed.
func (h *Handler) BuildSelect(c *gin.Context) {
	var q sqlbuild.SelectQuery
	if !bind(c, &q) {
		return
	}
	sql, err := q.Build()
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"sql": sql})
}

// BuildUpdate renders the UPDATE builder state. A statement without WHERE
// is returned with a warning rather than refused.
func (h *Handler) BuildUpdate(c *gin.Context) {
	var q sqlbuild.UpdateQuery
	if !bind(c, &q) {
		return
	}
	sql, err := q.Build()
	if err != nil {
		respondError(c, err)
		return
	}
	out := gin.H{"sql": sql, "complete": !sqlbuild.IsSentinel(sql)}
	if !sqlbuild.IsSentinel(sql) && q.HasUnscopedWhere() {
		out["warning"] = WarningUnscopedUpdate
	}
	respond(c, out)
}

func (h *Handler) BuildCreate(c *gin.Context) {
	var ct sqlbuild.CreateTable
	if !bind(c, &ct) {
		return
	}
	sql, err := ct.Build()
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"sql": sql, "complete": !sqlbuild.IsSentinel(sql)})
}

func (h *Handler) History(c *gin.Context) {
	f := history.Filter{
		Pattern: c.Query("pattern"),
		Table:   c.Query("table"),
		Action:  c.Query("action"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, &sqlbuild.ValidationError{Field: "limit", Message: "limit must be a number"})
			return
		}
		f.Limit = n
	}
	entries, err := h.svc.History(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, entries)
}

// Codegen writes the PHP data-access class for one table.
func (h *Handler) Codegen(c *gin.Context) {
	var req codegenRequest
	if !bind(c, &req) {
		return
	}
	s, err := h.svc.Schema(c.Request.Context(), req.Table)
	if err != nil {
		respondError(c, err)
		return
	}
	class := req.ClassName
	if class == "" {
		class = codegen.ClassName(s.Table)
	}
	src, err := codegen.PHP(codegen.Options{
		Table:      s.Table,
		ClassName:  class,
		Namespace:  req.Namespace,
		Columns:    s.Columns,
		PrimaryKey: s.PrimaryKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, gin.H{"class": class, "code": src})
}
