package attach

import (
	"context"

	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// IdentityType is the identity the Identification common procedure asks
// the UE for.
type IdentityType uint8

const (
	IdentityIMSI IdentityType = iota
	IdentityIMEI
)

// CommonProcedures abstracts the three common procedures the Attach
// Coordinator can start: Identification, Authentication, and Security
// Mode Control. Their NAS encoding and UE round trip are out of scope
// (spec.md §1) — this interface is their specified boundary, matching
// how the core treats ESM and the access stratum as external
// collaborators reachable only through a SAP.
//
// Each Start call is a suspension point (spec.md §5): control returns to
// the caller immediately, and exactly one of success/failure/abort is
// invoked later to resume. The default SynchronousCommonProcedures
// adapter resolves immediately, standing in for the common procedures
// the same way the ESM stand-in stands in for session management.
type CommonProcedures interface {
	StartIdentification(sctx context.Context, ctx *emmcontext.UEContext, idType IdentityType, knownIMSI []byte,
		success func(*emmcontext.UEContext, []byte) error,
		failure, abort func(*emmcontext.UEContext) error) error

	StartAuthentication(sctx context.Context, ctx *emmcontext.UEContext, vector *emmcontext.AuthVector,
		success, failure, abort func(*emmcontext.UEContext) error) error

	StartSecurityModeControl(sctx context.Context, ctx *emmcontext.UEContext,
		success, failure, abort func(*emmcontext.UEContext) error) error
}

// SynchronousCommonProcedures is the default CommonProcedures
// implementation: every procedure resolves immediately against
// locally-available information, since this repository has no real UE
// peer to exchange Identity Request/Response, Authentication
// Request/Response, or Security Mode Command/Complete with.
type SynchronousCommonProcedures struct {
	logger *zap.Logger
}

// NewSynchronousCommonProcedures constructs the default stand-in adapter.
func NewSynchronousCommonProcedures(logger *zap.Logger) *SynchronousCommonProcedures {
	return &SynchronousCommonProcedures{logger: logger}
}

// StartIdentification implements CommonProcedures.
func (s *SynchronousCommonProcedures) StartIdentification(sctx context.Context, ctx *emmcontext.UEContext, idType IdentityType, knownIMSI []byte,
	success func(*emmcontext.UEContext, []byte) error,
	failure, abort func(*emmcontext.UEContext) error) error {
	s.logger.Debug("identification procedure resolved synchronously", zap.Uint32("ueid", uint32(ctx.UEID)), zap.Uint8("id_type", uint8(idType)))
	return success(ctx, knownIMSI)
}

// StartAuthentication implements CommonProcedures.
func (s *SynchronousCommonProcedures) StartAuthentication(sctx context.Context, ctx *emmcontext.UEContext, vector *emmcontext.AuthVector,
	success, failure, abort func(*emmcontext.UEContext) error) error {
	s.logger.Debug("authentication procedure resolved synchronously", zap.Uint32("ueid", uint32(ctx.UEID)))
	return success(ctx)
}

// StartSecurityModeControl implements CommonProcedures.
func (s *SynchronousCommonProcedures) StartSecurityModeControl(sctx context.Context, ctx *emmcontext.UEContext,
	success, failure, abort func(*emmcontext.UEContext) error) error {
	s.logger.Debug("security mode control procedure resolved synchronously", zap.Uint32("ueid", uint32(ctx.UEID)))
	return success(ctx)
}
