package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/houndview/pkg/edgefilter"
	"github.com/matzehuels/houndview/pkg/errors"
	"github.com/matzehuels/houndview/pkg/explore"
	"github.com/matzehuels/houndview/pkg/graph"
	"github.com/matzehuels/houndview/pkg/itemid"
	"github.com/matzehuels/houndview/pkg/params"
)

// =============================================================================
// Responses
// =============================================================================

type exploreResponse struct {
	Mode   params.SearchType    `json:"mode"`
	Key    explore.QueryKey     `json:"key"`
	Cached bool                 `json:"cached"`
	Data   *graph.GraphData     `json:"data,omitempty"`
	Table  *explore.SectionPage `json:"table,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

type itemResponse struct {
	Raw         string           `json:"raw"`
	Type        itemid.ItemType  `json:"type"`
	Form        string           `json:"form"`
	NodeID      string           `json:"nodeId,omitempty"`
	SourceID    string           `json:"sourceId,omitempty"`
	EdgeType    string           `json:"edgeType,omitempty"`
	TargetID    string           `json:"targetId,omitempty"`
	EdgeKey     string           `json:"edgeKey,omitempty"`
	CypherQuery string           `json:"cypherQuery"`
	Graph       *graph.GraphData `json:"graph,omitempty"`
}

type filterEdge struct {
	EdgeType string `json:"edgeType"`
	Checked  bool   `json:"checked"`
}

type filterGroup struct {
	Name          string        `json:"name"`
	Checked       bool          `json:"checked"`
	Indeterminate bool          `json:"indeterminate"`
	Subcategories []filterGroup `json:"subcategories,omitempty"`
	Edges         []filterEdge  `json:"edges,omitempty"`
}

type filterResponse struct {
	Categories []filterGroup `json:"categories"`
	Selected   []string      `json:"selected"`
	Default    bool          `json:"default"`
	Filter     string        `json:"filter"`
}

type sectionResponse struct {
	Label    string            `json:"label"`
	Path     string            `json:"path,omitempty"`
	Related  string            `json:"related,omitempty"`
	Sections []sectionResponse `json:"sections,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	state := params.Parse(r.URL.Query())
	s.execute(w, r, explore.Route(state))
}

func (s *Server) handleSectionTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := explore.Page{Skip: intParam(q.Get("skip")), Limit: intParam(q.Get("limit"))}
	s.execute(w, r, explore.RouteSectionTable(params.Parse(q), page))
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, d explore.Descriptor) {
	if !d.Enabled {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	d = d.WithRetry(s.opts.Retry)

	res, err := s.executor(r).Execute(r.Context(), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := exploreResponse{Mode: res.Mode, Key: res.Key, Cached: res.Cached, Table: res.Table}
	if res.Table == nil {
		resp.Data = &res.Graph
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	d := itemid.Decode(chi.URLParam(r, "itemID"))
	resp := itemResponse{
		Raw:         d.Raw,
		Type:        d.Type(),
		Form:        d.Form.String(),
		NodeID:      d.NodeID,
		SourceID:    d.SourceID,
		EdgeType:    d.EdgeType,
		TargetID:    d.TargetID,
		EdgeKey:     d.EdgeKey,
		CypherQuery: d.CypherQuery,
	}
	if fetch, _ := strconv.ParseBool(r.URL.Query().Get("fetch")); fetch {
		if s.opts.Items == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "graph store is not configured"))
			return
		}
		g, err := s.opts.Items.FetchItem(r.Context(), d.Raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Graph = &g
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEdgeFilters(w http.ResponseWriter, r *http.Request) {
	state := params.Parse(r.URL.Query())
	tree := edgefilter.Committed(state)

	resp := filterResponse{
		Categories: []filterGroup{},
		Selected:   tree.Selected(),
		Default:    tree.IsDefault(),
		Filter:     edgefilter.QueryFilter(state),
	}
	for _, c := range tree.Visible(r.URL.Query().Get("q")) {
		cg := filterGroup{Name: c.Name, Checked: c.State.Checked, Indeterminate: c.State.Indeterminate}
		for _, sc := range c.Subcategories {
			sg := filterGroup{Name: sc.Name, Checked: sc.State.Checked, Indeterminate: sc.State.Indeterminate}
			for _, l := range sc.Leaves {
				sg.Edges = append(sg.Edges, filterEdge{EdgeType: l.EdgeType, Checked: l.Checked})
			}
			cg.Subcategories = append(cg.Subcategories, sg)
		}
		resp.Categories = append(resp.Categories, cg)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	tree, ok := explore.Sections(kind)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no sections for entity kind %q", kind))
		return
	}
	id := r.URL.Query().Get("id")
	writeJSON(w, http.StatusOK, sectionsOf(tree, id))
}

func sectionsOf(secs []explore.Section, id string) []sectionResponse {
	out := make([]sectionResponse, 0, len(secs))
	for _, sec := range secs {
		sr := sectionResponse{Label: sec.Label}
		if sec.IsLeaf() {
			sr.Related = sec.Endpoint.Related
			if id != "" {
				sr.Path = sec.Endpoint.Path(id)
			}
		} else {
			sr.Sections = sectionsOf(sec.Sections, id)
		}
		out = append(out, sr)
	}
	return out
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == 0 {
		// The client went away.
		return
	}
	msg := errorResponse{Message: errors.UserMessage(err), Key: string(errors.GetCode(err))}
	var qe *explore.QueryError
	if stderrors.As(err, &qe) {
		msg = errorResponse{Message: qe.Message.Text, Key: qe.Message.Key}
	} else if stderrors.Is(err, explore.ErrSuperseded) {
		msg = errorResponse{Message: err.Error(), Key: "Superseded"}
	}
	if status >= 500 {
		s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, msg)
}

// statusFor picks the response status for err, or 0 when the request
// was cancelled by its client.
func statusFor(err error) int {
	var se interface{ HTTPStatus() int }
	switch {
	case stderrors.Is(err, explore.ErrSuperseded):
		return http.StatusConflict
	case stderrors.Is(err, context.Canceled):
		return 0
	case stderrors.Is(err, explore.ErrEmptyResult):
		return http.StatusNotFound
	case stderrors.Is(err, params.ErrInvalidCypher):
		return http.StatusBadRequest
	case stderrors.As(err, &se):
		if st := se.HTTPStatus(); st >= 400 && st < 500 {
			return st
		}
		return http.StatusBadGateway
	}
	if code := errors.GetCode(err); code != "" {
		return errors.HTTPStatus(code)
	}
	return http.StatusInternalServerError
}

func intParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
