package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sqltrace-labs/sqltrace/internal/dag"
	"github.com/sqltrace-labs/sqltrace/internal/lineage"
	"github.com/sqltrace-labs/sqltrace/internal/parser"
	"github.com/sqltrace-labs/sqltrace/internal/resolver"
)

// maxUploadBytes caps the total size of an analyze request.
const maxUploadBytes = 32 << 20

func (s *Server) routes(r chi.Router) {
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/dialects", s.handleDialects)
	r.Post("/api/analyze", s.handleAnalyze)
}

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeStats struct {
	TotalTables  int `json:"total_tables"`
	TotalColumns int `json:"total_columns"`
	TotalEdges   int `json:"total_edges"`
	TableEdges   int `json:"table_edges"`
	ColumnEdges  int `json:"column_edges"`
}

type analyzeResponse struct {
	RunID          string                `json:"run_id"`
	Dialect        string                `json:"dialect"`
	Files          []string              `json:"files"`
	Nodes          []lineage.Node        `json:"nodes"`
	Links          []lineage.Link        `json:"links"`
	ExecutionOrder []string              `json:"execution_order"`
	Diagnostics    []resolver.Diagnostic `json:"diagnostics"`
	Stats          analyzeStats          `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDialects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dialects": parser.Dialects(),
		"default":  s.defaultDialect,
	})
}

// handleAnalyze accepts a multipart upload of SQL files and returns the
// unified lineage graph, execution order and per-file diagnostics.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart request: " + err.Error()})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no files uploaded"})
		return
	}

	dialect := r.FormValue("dialect")
	if dialect == "" {
		dialect = s.defaultDialect
	}

	includeColumns := true
	if v := r.FormValue("include_columns"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid include_columns value"})
			return
		}
		includeColumns = parsed
	}

	sources := make([]resolver.Source, 0, len(files))
	names := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading upload " + fh.Filename + ": " + err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading upload " + fh.Filename + ": " + err.Error()})
			return
		}
		sources = append(sources, resolver.Source{Name: fh.Filename, SQL: string(data)})
		names = append(names, fh.Filename)
	}

	graph, diags, err := resolver.Resolve(r.Context(), sources, resolver.Options{
		Dialect:        dialect,
		IncludeColumns: includeColumns,
		Workers:        s.workers,
	})
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	doc := graph.Document()
	tableEdges := len(graph.TableEdges())
	resp := analyzeResponse{
		RunID:          uuid.NewString(),
		Dialect:        dialect,
		Files:          names,
		Nodes:          doc.Nodes,
		Links:          doc.Links,
		ExecutionOrder: dag.ExecutionOrder(graph),
		Diagnostics:    diags,
		Stats: analyzeStats{
			TotalTables:  graph.NumTables(),
			TotalColumns: graph.NumColumns(),
			TotalEdges:   graph.NumEdges(),
			TableEdges:   tableEdges,
			ColumnEdges:  graph.NumEdges() - tableEdges,
		},
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []resolver.Diagnostic{}
	}

	s.logger.Info("analyzed sources",
		"run_id", resp.RunID,
		"files", len(names),
		"tables", resp.Stats.TotalTables,
		"edges", resp.Stats.TotalEdges,
		"failures", len(resp.Diagnostics))

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
