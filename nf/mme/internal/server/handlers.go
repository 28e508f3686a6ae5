package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// Releaser is the Attach Coordinator's administrative teardown
// operation, injected so the debug HTTP API never reaches into the
// Context Store directly for a mutating action.
type Releaser interface {
	Release(ueid emmcontext.UEID) error
}

// SetReleaser wires the coordinator the release endpoint delegates to.
// Split from New so a Server can be stood up read-only (store only, no
// coordinator) when only introspection is needed, e.g. in tests.
func (s *Server) SetReleaser(r Releaser) {
	s.releaser = r
}

func ueContextView(ctx *emmcontext.UEContext) map[string]interface{} {
	view := map[string]interface{}{
		"ueid":         uint32(ctx.UEID),
		"attached":     ctx.IsAttached,
		"fsm_status":   uint8(ctx.FSMStatus),
		"attach_type":  uint8(ctx.AttachType),
		"tac":          ctx.TAC,
		"has_security": ctx.Security != nil,
	}
	if ctx.IMSI != nil {
		view["imsi"] = string(ctx.IMSI)
	}
	if ctx.GUTI != nil {
		view["mtmsi"] = ctx.GUTI.MTMSI
		view["mme_group_id"] = ctx.GUTI.GUMMEI.MMEGroupID
		view["mme_code"] = ctx.GUTI.GUMMEI.MMECode
	}
	return view
}

func (s *Server) handleListUEContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.store.All()

	out := make([]map[string]interface{}, 0, len(contexts))
	for _, ctx := range contexts {
		out = append(out, ueContextView(ctx))
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":        len(out),
		"ue_contexts":  out,
	})
}

func (s *Server) handleGetUEContext(w http.ResponseWriter, r *http.Request) {
	ueid, err := parseUEID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid ueid", err)
		return
	}

	ctx, ok := s.store.Get(ueid)
	if !ok {
		s.respondError(w, http.StatusNotFound, "UE context not found", nil)
		return
	}

	s.respondJSON(w, http.StatusOK, ueContextView(ctx))
}

func (s *Server) handleReleaseUEContext(w http.ResponseWriter, r *http.Request) {
	ueid, err := parseUEID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid ueid", err)
		return
	}

	if s.releaser == nil {
		s.respondError(w, http.StatusServiceUnavailable, "release not available", nil)
		return
	}

	if err := s.releaser.Release(ueid); err != nil {
		s.respondError(w, http.StatusNotFound, "failed to release UE context", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service":         "MME",
		"active_contexts": s.store.Len(),
		"registered_ues":  s.store.RegisteredCount(),
	})
}

func parseUEID(r *http.Request) (emmcontext.UEID, error) {
	raw := chi.URLParam(r, "ueid")
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return emmcontext.UEID(v), nil
}
