// Package api serves parameter lookup, adjustment validation and reform runs
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/calibrate"
	"CostOfCapital/internal/compare"
	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
	"CostOfCapital/internal/report"
)

// Handler holds the baseline shared by every request.
type Handler struct {
	runner   compare.Runner
	schema   *params.Schema
	year     int
	variable string
}

// NewHandler creates a Handler. year is the default run year and variable
// the output variable of the text summary.
func NewHandler(runner compare.Runner, schema *params.Schema, year int, variable string) *Handler {
	return &Handler{runner: runner, schema: schema, year: year, variable: variable}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches the API routes to router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.GET("/parameters", h.GetParameters)
		v1.POST("/validate", h.Validate)
		v1.POST("/run", h.Run)
	}
}

type runRequest struct {
	Year       int             `json:"year"`
	Adjustment json.RawMessage `json:"adjustment"`
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Errors []model.ValidationError `json:"errors,omitempty"`
}

type tableResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type runResponse struct {
	ID      string        `json:"id"`
	Year    int           `json:"year"`
	Summary string        `json:"summary"`
	Entity  tableResponse `json:"entity"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetParameters returns every baseline parameter in effect for ?year=.
func (h *Handler) GetParameters(c *gin.Context) {
	year := h.year
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < params.StartYear || y > params.EndYear {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "year must be an integer in the parameter range"})
			return
		}
		year = y
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "parameters": h.schema.Dump(year)})
}

// Validate checks an adjustment without running it.
func (h *Handler) Validate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	adj, ok := h.adjustment(c, req)
	if !ok {
		return
	}
	reformed, errs := params.ApplyAdjustment(h.schema, adj)
	if len(errs) == 0 {
		sp, err := reformed.Specification(req.Year)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		errs = calibrate.Check(sp)
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid adjustment", Errors: errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// Run compares the adjustment against the baseline and returns the summary
// and the entity difference table.
func (h *Handler) Run(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	adj, ok := h.adjustment(c, req)
	if !ok {
		return
	}

	cmp, err := compare.Reform(c.Request.Context(), h.runner, h.schema, adj, req.Year)
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid adjustment", Errors: verrs})
		return
	case err != nil:
		log.Printf("[ERROR] api run: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	sheet := report.DiffSheet(aggregate.ByEntity, cmp.Diffs[aggregate.ByEntity])
	c.JSON(http.StatusOK, runResponse{
		ID:      cmp.ID,
		Year:    req.Year,
		Summary: report.FormatSummary(cmp, h.variable),
		Entity:  tableResponse{Columns: sheet.Header, Rows: sheet.Rows},
	})
}

func (h *Handler) bind(c *gin.Context) (runRequest, bool) {
	var req runRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return req, false
		}
	}
	if req.Year == 0 {
		req.Year = h.year
	}
	if req.Year < params.StartYear || req.Year > params.EndYear {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "year outside the parameter range"})
		return req, false
	}
	return req, true
}

func (h *Handler) adjustment(c *gin.Context, req runRequest) (params.Adjustment, bool) {
	if len(req.Adjustment) == 0 || string(req.Adjustment) == "null" {
		return params.Adjustment{}, true
	}
	adj, err := params.ParseAdjustment(req.Adjustment)
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid adjustment", Errors: verrs})
		return nil, false
	case err != nil:
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	return adj, true
}
