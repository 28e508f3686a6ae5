// Package esm is a minimal in-process stand-in for EPS Session Management.
// Full ESM is explicitly out of scope (spec.md §1), but the Attach
// Coordinator's Phase: Attach needs something to call PDN_CONNECTIVITY_REQ
// on. This adapter allocates a UE IP from a pool and a default EPS bearer
// id, modeled on the teacher's SMF session.go / IPPool
// (nf/smf/internal/service/session.go), the closest analogue to "the
// session layer" from the Attach Coordinator's point of view.
package esm

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"
)

// PDNAdapter implements sap.ESMSAP against a trivial default-bearer
// allocator. Non-goals from spec.md §1 bound its scope: it implements
// only what Attach needs (PDN connectivity request/accept/reject and the
// default EPS bearer activate confirm), nothing else ESM would normally
// do (bearer modification, secondary PDN connections, and so on).
type PDNAdapter struct {
	logger *zap.Logger

	mu          sync.Mutex
	subnet      *net.IPNet
	allocated   map[emmcontext.UEID]string
	nextBearer  uint8
}

// NewPDNAdapter constructs a PDNAdapter over the given UE IPv4 subnet.
func NewPDNAdapter(cidr string, logger *zap.Logger) (*PDNAdapter, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid UE subnet: %w", err)
	}
	return &PDNAdapter{
		logger:     logger,
		subnet:     ipNet,
		allocated:  make(map[emmcontext.UEID]string),
		nextBearer: 5, // EPS bearer ids 0-4 are reserved
	}, nil
}

// PDNConnectivityREQ implements sap.ESMSAP. It allocates a UE IP and a
// default bearer id, and encodes a trivial "Activate Default EPS Bearer
// Context Request" as the opaque NAS reply the Attach Coordinator will
// buffer into the Retransmission Record.
func (a *PDNAdapter) PDNConnectivityREQ(req sap.PDNConnectivityRequest) (sap.PDNConnectivityResponse, error) {
	if req.IsStandalone {
		return sap.PDNConnectivityResponse{Err: sap.ESMOtherFailure}, fmt.Errorf("standalone PDN connectivity not supported during attach")
	}

	ip, err := a.allocate(req.UEID)
	if err != nil {
		a.logger.Warn("PDN connectivity request failed: IP pool exhausted", zap.Uint32("ueid", uint32(req.UEID)))
		return sap.PDNConnectivityResponse{Err: sap.ESMOtherFailure}, nil
	}

	bearerID := a.nextBearerID()
	nasMsg := encodeActivateDefaultBearerRequest(bearerID, ip)

	a.logger.Info("PDN connectivity accepted",
		zap.Uint32("ueid", uint32(req.UEID)),
		zap.String("ue_ip", ip),
		zap.Uint8("bearer_id", bearerID),
	)

	return sap.PDNConnectivityResponse{Send: nasMsg, Err: sap.ESMSuccess}, nil
}

// PDNConnectivityREJ implements sap.ESMSAP: reclaims whatever was
// tentatively allocated for ueid (abort path, spec.md §4.10).
func (a *PDNAdapter) PDNConnectivityREJ(ueid emmcontext.UEID, cause emmcontext.CauseCode) error {
	a.mu.Lock()
	delete(a.allocated, ueid)
	a.mu.Unlock()

	a.logger.Info("ESM_PDN_CONNECTIVITY_REJ", zap.Uint32("ueid", uint32(ueid)), zap.Uint8("cause", uint8(cause)))
	return nil
}

// DefaultEPSBearerContextActivateCNF implements sap.ESMSAP: the UE's
// Attach Complete embeds this confirmation (spec.md §4.1 step 5).
func (a *PDNAdapter) DefaultEPSBearerContextActivateCNF(ueid emmcontext.UEID, esmMsg []byte) (sap.ESMResult, error) {
	a.logger.Info("DEFAULT_EPS_BEARER_CONTEXT_ACTIVATE_CNF", zap.Uint32("ueid", uint32(ueid)), zap.Int("esm_msg_len", len(esmMsg)))
	return sap.ESMSuccess, nil
}

func (a *PDNAdapter) allocate(ueid emmcontext.UEID) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ip, ok := a.allocated[ueid]; ok {
		return ip, nil
	}

	ip := make(net.IP, len(a.subnet.IP))
	copy(ip, a.subnet.IP)
	ip[len(ip)-1]++

	taken := make(map[string]bool, len(a.allocated))
	for _, v := range a.allocated {
		taken[v] = true
	}

	for a.subnet.Contains(ip) {
		s := ip.String()
		if !taken[s] {
			a.allocated[ueid] = s
			return s, nil
		}
		for i := len(ip) - 1; i >= 0; i-- {
			ip[i]++
			if ip[i] != 0 {
				break
			}
		}
	}
	return "", fmt.Errorf("UE IP pool exhausted")
}

func (a *PDNAdapter) nextBearerID() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextBearer
	a.nextBearer++
	return id
}

// encodeActivateDefaultBearerRequest builds a minimal opaque byte
// encoding of the Activate Default EPS Bearer Context Request: bearer
// id followed by the allocated IPv4 address. Real NAS/ESM encoding is
// out of scope (spec.md §1) — this is only enough structure for the
// Retransmission Record to carry and retransmit verbatim.
func encodeActivateDefaultBearerRequest(bearerID uint8, ip string) []byte {
	addr := net.ParseIP(ip).To4()
	buf := make([]byte, 1+4)
	buf[0] = bearerID
	if addr != nil {
		copy(buf[1:], addr)
	} else {
		binary.BigEndian.PutUint32(buf[1:], 0)
	}
	return buf
}
