// ABOUTME: JSON request handlers for the canvas API.
// ABOUTME: Maps flow and store errors onto HTTP status codes with a uniform error envelope.

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/litai12/Tanva-sub008/flow"
	"github.com/litai12/Tanva-sub008/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrNodeNotFound),
		errors.Is(err, flow.ErrEdgeNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrAlreadyRunning),
		errors.Is(err, flow.ErrEdgeExists),
		errors.Is(err, flow.ErrNodeExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, flow.ErrEmptyID),
		errors.Is(err, flow.ErrUnknownPort),
		errors.Is(err, flow.ErrPortConnected),
		errors.Is(err, flow.ErrNotRunnable),
		errors.Is(err, flow.ErrNoInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 32<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// session resolves the {id} route parameter to a live session, writing a 404
// if it does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

type sessionSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Nodes      int       `json:"nodes"`
	CreatedAt  time.Time `json:"createdAt"`
	LastAccess time.Time `json:"lastAccess"`
}

func summarize(sess *Session) sessionSummary {
	return sessionSummary{
		ID:         sess.ID,
		Name:       sess.Name,
		Nodes:      sess.Runtime.Graph().Len(),
		CreatedAt:  sess.CreatedAt,
		LastAccess: sess.LastAccess,
	}
}

type createSessionRequest struct {
	Name       string          `json:"name"`
	ProjectID  string          `json:"projectId,omitempty"`
	TemplateID string          `json:"templateId,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var raw []byte
	switch {
	case req.ProjectID != "":
		proj, err := s.db.GetProject(req.ProjectID)
		if err != nil {
			writeError(w, err)
			return
		}
		raw = proj.Document
		if req.Name == "" {
			req.Name = proj.Name
		}
	case req.TemplateID != "":
		tmpl, err := s.db.GetTemplate(req.TemplateID)
		if err != nil {
			writeError(w, err)
			return
		}
		raw = tmpl.Document
		if req.Name == "" {
			req.Name = tmpl.Name
		}
	case len(req.Document) > 0:
		raw = req.Document
	}

	var doc *flow.Document
	if len(raw) > 0 {
		parsed, err := flow.ParseDocument(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		// Sessions opened from a template or project get their own node
		// identities so two sessions never share IDs.
		doc = flow.CloneDocument(parsed)
	}

	if req.Name == "" {
		req.Name = "untitled"
	}

	sess, err := s.sessions.Create(req.Name, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.List()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, summarize(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, err := sess.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":  summarize(sess),
		"document": json.RawMessage(doc),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, err := sess.Document()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(nil, r.Body, 32<<20)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body: " + err.Error()})
		return
	}
	doc, err := flow.ParseDocument(buf.Bytes())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.Load(doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(sess))
}

type saveRequest struct {
	ProjectID string `json:"projectId,omitempty"`
	Name      string `json:"name,omitempty"`
}

func (s *Server) handleSaveToProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	doc, err := sess.Document()
	if err != nil {
		writeError(w, err)
		return
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = uuid.New().String()
	}
	name := req.Name
	if name == "" {
		name = sess.Name
	}

	if err := s.db.SaveProject(projectID, name, doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"projectId": projectID, "name": name})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Undo(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summarize(sess))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Redo(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summarize(sess))
}

type addNodeRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addNodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := sess.AddNode(flow.NodeKind(req.Kind), flow.Position{X: req.X, Y: req.Y})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	kind, data, ok := sess.Runtime.Graph().Snapshot(nodeID)
	if !ok {
		writeError(w, flow.ErrNodeNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":   nodeID,
		"kind": kind,
		"data": data,
	})
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveNode(chi.URLParam(r, "nodeID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setFieldRequest struct {
	Port  string `json:"port"`
	Value string `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.SetField(chi.URLParam(r, "nodeID"), req.Port, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var opts flow.NodeOptions
	if err := decodeJSON(r, &opts); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := sess.SetOptions(chi.URLParam(r, "nodeID"), opts); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")

	// The run itself outlives this request; the runtime detaches it from the
	// request context.
	handle, err := sess.Runtime.Run(r.Context(), nodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"nodeId": handle.NodeID, "status": string(flow.StatusRunning)})
}

func (s *Server) handleResetNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Runtime.ResetNode(chi.URLParam(r, "nodeID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type connectRequest struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := sess.Connect(req.Source, req.SourceHandle, req.Target, req.TargetHandle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Disconnect(chi.URLParam(r, "edgeID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Runtime.History().List(queryLimit(r)))
}

func (s *Server) handleGlobalHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.ListHistory(queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 100
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.db.ListProjects()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.db.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := s.db.RenameProject(chi.URLParam(r, "id"), req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteProject(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type templateView struct {
	TemplateID      string    `json:"templateId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"descriptionHtml"`
	CreatedAt       string    `json:"createdAt"`
}

// renderTemplate converts the markdown description to HTML for display.
func (s *Server) renderTemplate(t *store.Template) templateView {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(t.Description), &buf); err != nil {
		buf.Reset()
	}
	return templateView{
		TemplateID:      t.TemplateID,
		Name:            t.Name,
		Description:     t.Description,
		DescriptionHTML: buf.String(),
		CreatedAt:       t.CreatedAt,
	}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.ListTemplates()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]templateView, 0, len(templates))
	for i := range templates {
		out = append(out, s.renderTemplate(&templates[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.db.GetTemplate(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	view := s.renderTemplate(tmpl)
	writeJSON(w, http.StatusOK, map[string]any{
		"template": view,
		"document": json.RawMessage(tmpl.Document),
	})
}

type putTemplateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Document    json.RawMessage `json:"document"`
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var req putTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := flow.ValidateDocument(req.Document); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	t := &store.Template{
		TemplateID:  chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Document:    req.Document,
	}
	if err := s.db.PutTemplate(t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.renderTemplate(t))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteTemplate(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.AllSettings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.db.SetSetting(chi.URLParam(r, "key"), req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteSetting(chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreditBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.db.Balance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (s *Server) handleCreditLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.LedgerEntries(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreditGrant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
		Amount int    `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}
	if err := s.db.Grant(r.Context(), req.Reason, req.Amount); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	balance, err := s.db.Balance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}
