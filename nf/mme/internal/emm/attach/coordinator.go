// Package attach implements the Attach Coordinator and the phase
// sequence it drives: Context Updater, Phase: Identify, Phase:
// Authenticate & Secure, Phase: Attach, Phase: Attach Accept, the T3450
// timer handler, and the abnormal-case paths Reject/Abort/Release
// (spec.md §4). It is the top of the dependency order described in
// spec.md §2: Context Store → Parameter Diff → Context Updater → SAP
// Adapters → Phase modules → Timer Handler → Attach Coordinator.
package attach

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/epc-mme/common/metrics"
	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/emm/diff"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/mmeapi"
)

// Config carries the subset of MME configuration the Coordinator needs:
// GUAMI for synthesized GUTIs isn't here (that lives behind the MME API),
// just the feature flags and timer bounds spec.md §6 and §4.9 name.
type Config struct {
	EmergencyAttach      bool
	UnauthenticatedIMSI  bool
	T3450Seconds         int
	AttachCounterMax     int
}

// Coordinator is the Attach Coordinator: the top-level state machine
// exposing attach_request/attach_reject/attach_complete (spec.md §4.1).
type Coordinator struct {
	cfg Config

	store   *emmcontext.Store
	retrans *emmcontext.RetransmissionStore
	mmeAPI  mmeapi.MMEAPI
	common  CommonProcedures

	reg sap.RegSAP
	as  sap.ASSAP
	esm sap.ESMSAP

	logger *zap.Logger
	tracer trace.Tracer

	timersMu sync.Mutex
	timers   map[emmcontext.UEID]*time.Timer
}

// NewCoordinator wires a Coordinator from its collaborators. common may
// be nil, in which case SynchronousCommonProcedures is used.
func NewCoordinator(cfg Config, store *emmcontext.Store, retrans *emmcontext.RetransmissionStore,
	mmeAPI mmeapi.MMEAPI, common CommonProcedures, reg sap.RegSAP, as sap.ASSAP, esm sap.ESMSAP,
	logger *zap.Logger) *Coordinator {
	if common == nil {
		common = NewSynchronousCommonProcedures(logger)
	}
	return &Coordinator{
		cfg:     cfg,
		store:   store,
		retrans: retrans,
		mmeAPI:  mmeAPI,
		common:  common,
		reg:     reg,
		as:      as,
		esm:     esm,
		logger:  logger,
		tracer:  otel.Tracer("mme-attach"),
		timers:  make(map[emmcontext.UEID]*time.Timer),
	}
}

// Request carries the fields of an Attach Request, already decoded
// (spec.md §4.1's attach_request signature).
type Request struct {
	UEID          emmcontext.UEID
	Type          emmcontext.AttachType
	IsNativeKSI   bool
	KSI           uint8
	IsNativeGUTI  bool
	GUTI          *emmcontext.GUTI
	IMSI          []byte
	IMEI          []byte
	TAC           *uint16
	EEA           uint8
	EIA           uint8
	UCS2          bool
	UEA           uint8
	UIA           uint8
	GEA           uint8
	UMTSPresent   bool
	GPRSPresent   bool
	ESMMsg        []byte
	DecodeSuccess bool
}

// invalidUEID marks a ueid the lower layer never allocated (spec.md
// §4.1 guard 1 — "out of range of the context array" in a
// pre-allocated deployment; here any ueid is representable, so this is
// always false and exists to keep the guard explicit).
func invalidUEID(ueid emmcontext.UEID) bool {
	return false
}

// AttachRequest is attach_request (spec.md §4.1). It roots one span per
// Attach Request, covering Identify through Attach Accept as child
// spans, modeled on the teacher's per-call tracer.Start/span.End pattern
// (nf/upf/internal/dataplane/simulated/simulated.go).
func (co *Coordinator) AttachRequest(req Request) error {
	sctx, span := co.tracer.Start(context.Background(), "Coordinator.AttachRequest")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("ueid", int64(req.UEID)),
		attribute.Int("attach_type", int(req.Type)),
	)

	if !req.DecodeSuccess {
		return co.AttachReject(req.UEID, emmcontext.CauseProtocolError)
	}

	if invalidUEID(req.UEID) {
		return co.AttachReject(req.UEID, emmcontext.CauseIllegalUE)
	}

	if req.Type == emmcontext.AttachTypeEmergency && !co.cfg.EmergencyAttach {
		return co.AttachReject(req.UEID, emmcontext.CauseIMEINotAccepted)
	}

	ctx, found := co.store.Get(req.UEID)
	previousContextFound := found

	if !found && req.GUTI != nil {
		if existing, ok := co.store.GetByGUTI(*req.GUTI); ok {
			existing.Lock()
			oldUEID := existing.UEID
			co.mmeAPI.NotifyUEIDChanged(oldUEID, req.UEID)
			co.store.Rekey(existing, req.UEID)
			existing.Unlock()
			ctx = existing
			// Open question (spec.md §9, item 2): previous_context_found is
			// left false after a GUTI-based rekey, so the rekeyed context
			// still falls into the create-new-context branch below instead
			// of the duplicate/parameter-diff branch. Preserved as observed.
			previousContextFound = false
		}
	}

	if previousContextFound {
		ctx.Lock()
		if ctx.PastDeregistered() {
			changed := diff.ParametersHaveChanged(ctx, requestToDiff(req))
			if changed {
				// Reset to a clean slate before recursing so the re-entrant
				// call below updates this same context in place rather than
				// detecting the same change against itself forever.
				ctx.FSMStatus = emmcontext.EMMFSMDeregistered
				ctx.Unlock()
				co.reg.Notify(sap.RegEvent{Primitive: sap.RegProcAbort, UEID: ctx.UEID, Ctx: ctx})
				metrics.RecordAttachAttempt("restarted")
				return co.AttachRequest(req)
			}
			ctx.Unlock()
			metrics.RecordAttachAttempt("duplicate")
			return nil
		}
		ctx.Unlock()
	}

	if ctx == nil {
		ctx = emmcontext.NewUEContext(req.UEID)
		if req.TAC != nil {
			ctx.TAC = *req.TAC
		}
		co.store.Insert(ctx)
	}

	ctx.Lock()
	defer ctx.Unlock()

	if err := co.updateContext(ctx, req); err != nil {
		ctx.EMMCause = emmcontext.CauseIllegalUE
		return co.reject(sctx, ctx)
	}

	ctx.FSMStatus = emmcontext.EMMFSMCommonProcedureInit
	metrics.RecordAttachAttempt("accepted")
	return co.identify(sctx, ctx)
}

// AttachReject is attach_reject: builds a transient context carrying
// cause and calls the internal reject path (spec.md §4.1).
func (co *Coordinator) AttachReject(ueid emmcontext.UEID, cause emmcontext.CauseCode) error {
	sctx, span := co.tracer.Start(context.Background(), "Coordinator.AttachReject")
	defer span.End()

	ctx := emmcontext.NewUEContext(ueid)
	ctx.IsDynamic = false
	ctx.EMMCause = cause
	return co.reject(sctx, ctx)
}

// AttachComplete is attach_complete (spec.md §4.1).
func (co *Coordinator) AttachComplete(ueid emmcontext.UEID, esmMsg []byte) error {
	_, span := co.tracer.Start(context.Background(), "Coordinator.AttachComplete")
	defer span.End()

	co.retrans.Release(ueid)

	ctx, ok := co.store.Get(ueid)
	if !ok {
		co.logger.Warn("attach complete for unknown ueid", zap.Uint32("ueid", uint32(ueid)))
		return fmt.Errorf("attach complete: unknown ueid %d", ueid)
	}

	ctx.Lock()
	defer ctx.Unlock()

	co.stopT3450(ctx)
	ctx.GUTIIsNew = false
	ctx.OldGUTI = nil

	result, err := co.esm.DefaultEPSBearerContextActivateCNF(ueid, esmMsg)
	if err != nil {
		return err
	}

	switch result {
	case sap.ESMSuccess:
		ctx.IsAttached = true
		ctx.FSMStatus = emmcontext.EMMFSMRegistered
		co.reg.Notify(sap.RegEvent{Primitive: sap.RegAttachCNF, UEID: ueid, Ctx: ctx})
	case sap.ESMDiscarded:
		// swallow silently
	default:
		co.reg.Notify(sap.RegEvent{Primitive: sap.RegAttachREJ, UEID: ueid, Ctx: ctx})
	}
	return nil
}

// Release is the administrative teardown the debug HTTP API exposes: it
// runs the Abnormal: Release path (spec.md §4.10) without any EMM cause
// exchange with the access stratum, for operator-driven context removal.
func (co *Coordinator) Release(ueid emmcontext.UEID) error {
	sctx, span := co.tracer.Start(context.Background(), "Coordinator.Release")
	defer span.End()

	ctx, ok := co.store.Get(ueid)
	if !ok {
		return fmt.Errorf("release: unknown ueid %d", ueid)
	}

	ctx.Lock()
	defer ctx.Unlock()

	return co.release(sctx, ctx)
}

func requestToDiff(req Request) diff.Request {
	return diff.Request{
		IsEmergency: req.Type == emmcontext.AttachTypeEmergency,
		KSI:         req.KSI,
		EEA:         req.EEA,
		EIA:         req.EIA,
		UMTSPresent: req.UMTSPresent,
		UCS2:        req.UCS2,
		UEA:         req.UEA,
		UIA:         req.UIA,
		GPRSPresent: req.GPRSPresent,
		GEA:         req.GEA,
		GUTI:        req.GUTI,
		IMSI:        req.IMSI,
		IMEI:        req.IMEI,
	}
}
