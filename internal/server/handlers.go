package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/jonathan/cranium/internal/types"
	"github.com/jonathan/cranium/internal/workspace"
)

// keepAliveInterval is how often an idle event stream receives a comment.
const keepAliveInterval = 25 * time.Second

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}

	who := owner(r)
	id, ws, err := s.openSession(r.Context(), &req, who)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	displaced, err := s.sessions.add(id, who, ws)
	if err != nil {
		ws.Close()
		s.failure(w, r, err)
		return
	}
	for _, old := range displaced {
		old.Close()
	}

	s.logger.Printf("Opened session %s for %s", id, who)
	s.jsonResponse(w, http.StatusCreated, createSessionResponse{SessionID: id, State: stateOf(id, ws)})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stateOf(r.PathValue("id"), ws))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ws, ok := s.sessions.remove(id, owner(r))
	if !ok {
		s.failure(w, r, &ErrSessionNotFound{SessionID: id})
		return
	}
	ws.Wait()
	ws.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTargetRole(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req targetRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	ws.SetTargetRole(req.TargetRole)
	s.jsonResponse(w, http.StatusOK, map[string]string{"target_role": ws.TargetRole()})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.Restore(r.Context()); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stateOf(r.PathValue("id"), ws))
}

// handleEvents streams alert events until the client goes away or the
// session closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, unsubscribe := ws.Subscribe()
	defer unsubscribe()

	if err := sse.WriteState(stateOf(r.PathValue("id"), ws)); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				sse.WriteEvent("closed", map[string]string{"session_id": r.PathValue("id")}) //nolint:errcheck
				return
			}
			if err := sse.WriteAlert(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if name := r.URL.Query().Get("container"); name != "" {
		items, err := ws.ExportContainer(name)
		if err != nil {
			s.failure(w, r, err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string][]types.ExportItem{"items": items})
		return
	}
	s.jsonResponse(w, http.StatusOK, ws.Export())
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req dragRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.DragStart(req.ItemID); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDragOver(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req dragOverRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.DragOver(req.ItemID, req.OverID); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ws.Snapshot().Containers())
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req dragRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	result, err := ws.DragEnd(req.ItemID, req.OverID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	ws.DragCancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	result, err := ws.MoveItem(req.ItemID, req.To, req.Index)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	id := r.PathValue("item_id")
	it, ok := ws.Item(id)
	if !ok {
		s.failure(w, r, &workspace.ReferenceError{Op: "get item", ID: id})
		return
	}
	s.jsonResponse(w, http.StatusOK, it)
}

func (s *Server) handleSetEdit(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	it, err := ws.SetEdit(r.PathValue("item_id"), req.Patch)
	if err != nil {
		var ref *workspace.ReferenceError
		if !errors.As(err, &ref) {
			// the patch does not fit the item's payload
			err = &ErrValidation{Field: "patch", Message: err.Error()}
		}
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, it)
}

func (s *Server) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	it, err := ws.SaveEdit(r.PathValue("item_id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, it)
}

func (s *Server) handleDiscardEdit(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.DiscardEdit(r.PathValue("item_id")); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdviceRequest(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	req, err := ws.AdviceRequest(r.PathValue("item_id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, req)
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req addSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ws.AddSection(req.Title))
}

func (s *Server) handleAddSectionItem(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	it, err := ws.AddSectionItem(r.PathValue("section_id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, it)
}

func (s *Server) handleEditSectionItem(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req sectionItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.EditSectionItem(r.PathValue("section_id"), r.PathValue("item_id"), req.Text); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRequestDeleteSection stages the section for deletion. Nothing is
// removed until the delete is confirmed.
func (s *Server) handleRequestDeleteSection(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.RequestDeleteSection(r.PathValue("section_id")); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, viewPending(ws.PendingDelete()))
}

func (s *Server) handleRequestDeleteItem(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.RequestDeleteItem(r.PathValue("section_id"), r.PathValue("item_id")); err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, viewPending(ws.PendingDelete()))
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	deleted, err := ws.ConfirmDelete()
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"section_id":      deleted.SectionID,
		"section_removed": deleted.SectionRemoved,
		"item_ids":        deleted.ItemIDs,
	})
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	ws.CancelDelete()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ws.Alerts())
}

func (s *Server) handleToggleAlert(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	alert, err := ws.ToggleAlert(r.PathValue("item_id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, alert)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaceFor(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := ws.DismissAlert(r.PathValue("item_id")); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
