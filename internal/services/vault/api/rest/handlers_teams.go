package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.svc.CreateTeam(r.Context(), caller, payload.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamResponse(created, "admin"))
}

// handleListTeams is lenient: callers without a provisioned user get an
// empty list instead of an error.
func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	caller, err := h.svc.CurrentUser(r.Context(), claimFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := make([]teamResponse, 0)
	if caller != nil {
		teams, err := h.svc.ListTeams(r.Context(), *caller)
		if err != nil {
			h.writeError(w, err)
			return
		}
		for _, entry := range teams {
			response = append(response, toTeamResponse(entry.Team, entry.Role))
		}
	}
	writeJSON(w, http.StatusOK, map[string][]teamResponse{"teams": response})
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entry, err := h.svc.GetTeam(r.Context(), caller, mux.Vars(r)["teamID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamResponse(entry.Team, entry.Role))
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.DeleteTeam(r.Context(), caller, mux.Vars(r)["teamID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	members, err := h.svc.GetMembers(r.Context(), caller, mux.Vars(r)["teamID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := make([]memberResponse, 0, len(members))
	for _, entry := range members {
		response = append(response, toMemberResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string][]memberResponse{"members": response})
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	outcome, err := h.svc.AddOrInviteMember(r.Context(), caller, mux.Vars(r)["teamID"], payload.Email, payload.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

func (h *Handler) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var payload struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.UpdateMemberRole(r.Context(), caller, vars["teamID"], vars["memberID"], payload.Role); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.RemoveMember(r.Context(), caller, vars["teamID"], vars["memberID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListInvites(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	invites, err := h.svc.ListPendingInvites(r.Context(), caller, mux.Vars(r)["teamID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	response := make([]inviteResponse, 0, len(invites))
	for _, entry := range invites {
		response = append(response, toInviteResponse(entry))
	}
	writeJSON(w, http.StatusOK, map[string][]inviteResponse{"invites": response})
}

func (h *Handler) handleCancelInvite(w http.ResponseWriter, r *http.Request) {
	caller, err := h.requireUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.CancelInvite(r.Context(), caller, vars["teamID"], vars["inviteID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
