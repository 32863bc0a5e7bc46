package api

import (
	"net/http"

	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/store"
)

// MemberHandlers serves the member directory, gated on the
// view_member_list permission.
type MemberHandlers struct {
	store *store.Store
}

// NewMemberHandlers creates the member handlers.
func NewMemberHandlers(st *store.Store) *MemberHandlers {
	return &MemberHandlers{store: st}
}

// list handles GET /member/list.
func (h *MemberHandlers) list(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, "internal server error")
		return
	}
	if members == nil {
		members = []store.MemberRecord{}
	}

	httputil.WriteSuccess(w, "members", map[string]interface{}{
		"members": members,
	})
}
