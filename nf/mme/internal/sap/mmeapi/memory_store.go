package mmeapi

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// MemoryStore is an in-memory MMEAPI implementation, the default/test
// subscriber backend (modeled on
// nf/nrf/internal/repository/repository.go's mutex-map MemoryRepository:
// one RWMutex guarding plain maps). Lookups return the stored
// SubscriberRecord pointer, not a copy.
type MemoryStore struct {
	mu          sync.RWMutex
	subscribers map[string]*SubscriberRecord // imsi (string) -> record
	byIMEI      map[string]bool
	byGUTI      map[emmcontext.GUTI][]byte // guti -> imsi, updated on allocation

	homeMCC string
	homeMNC string

	mmeGroupID uint16
	mmeCode    uint8
	tac        uint16

	nextMTMSI uint32

	pending map[uuid.UUID]AuthInfoRequest

	logger *zap.Logger
}

// MemoryStoreConfig carries the GUAMI/PLMN values the store needs to
// synthesize GUTIs and classify MNC length.
type MemoryStoreConfig struct {
	HomeMCC    string
	HomeMNC    string
	MMEGroupID uint16
	MMECode    uint8
	TAC        uint16
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(cfg MemoryStoreConfig, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[string]*SubscriberRecord),
		byIMEI:      make(map[string]bool),
		byGUTI:      make(map[emmcontext.GUTI][]byte),
		homeMCC:     cfg.HomeMCC,
		homeMNC:     cfg.HomeMNC,
		mmeGroupID:  cfg.MMEGroupID,
		mmeCode:     cfg.MMECode,
		tac:         cfg.TAC,
		nextMTMSI:   1,
		pending:     make(map[uuid.UUID]AuthInfoRequest),
		logger:      logger,
	}
}

// AddSubscriber registers a subscriber row, used by tests and by a
// provisioning path in a full deployment.
func (m *MemoryStore) AddSubscriber(rec *SubscriberRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribers[string(rec.IMSI)] = rec
}

// AddKnownIMEI marks imei as valid for emergency-attach-without-IMSI.
func (m *MemoryStore) AddKnownIMEI(imei []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byIMEI[string(imei)] = true
}

func (m *MemoryStore) lookup(imsi []byte) (*SubscriberRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.subscribers[string(imsi)]
	return rec, ok
}

// IdentifyIMSI implements MMEAPI.
func (m *MemoryStore) IdentifyIMSI(_ context.Context, imsi []byte) (*emmcontext.AuthVector, error) {
	rec, ok := m.lookup(imsi)
	if !ok {
		return nil, fmt.Errorf("%w: imsi", ErrNotFound)
	}
	return m.generateVector(rec)
}

// IdentifyGUTI implements MMEAPI. The memory store resolves any GUTI it
// has allocated since it was created; the GUTI->IMSI map is held in
// memory only and does not survive a restart.
func (m *MemoryStore) IdentifyGUTI(_ context.Context, guti emmcontext.GUTI) ([]byte, *emmcontext.AuthVector, error) {
	m.mu.RLock()
	imsi, ok := m.byGUTI[guti]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: guti", ErrNotFound)
	}

	rec, found := m.lookup(imsi)
	if !found {
		return nil, nil, fmt.Errorf("%w: imsi for resolved guti", ErrNotFound)
	}

	vec, err := m.generateVector(rec)
	if err != nil {
		return nil, nil, err
	}
	return imsi, vec, nil
}

// IdentifyIMEI implements MMEAPI.
func (m *MemoryStore) IdentifyIMEI(_ context.Context, imei []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.byIMEI[string(imei)] {
		return fmt.Errorf("%w: imei", ErrNotFound)
	}
	return nil
}

// NewGUTI implements MMEAPI: synthesizes a GUTI from the subscriber's
// IMSI and this MME's own GUAMI, per spec.md §4.4.
func (m *MemoryStore) NewGUTI(_ context.Context, imsi []byte) (GUTIAllocation, error) {
	mncLen, err := FindMNCLength(imsi, m.homeMCC, m.homeMNC)
	if err != nil {
		return GUTIAllocation{}, err
	}

	m.mu.Lock()
	mTMSI := m.nextMTMSI
	m.nextMTMSI++
	m.mu.Unlock()

	guti, err := SynthesizeGUTI(imsi, m.mmeGroupID, m.mmeCode, mncLen, mTMSI)
	if err != nil {
		return GUTIAllocation{}, err
	}

	imsiCopy := make([]byte, len(imsi))
	copy(imsiCopy, imsi)
	m.mu.Lock()
	m.byGUTI[guti] = imsiCopy
	m.mu.Unlock()

	return GUTIAllocation{GUTI: guti, TAC: m.tac, NTacs: 1}, nil
}

// NotifyUEIDChanged implements MMEAPI.
func (m *MemoryStore) NotifyUEIDChanged(oldUEID, newUEID emmcontext.UEID) {
	m.logger.Info("ue id changed", zap.Uint32("old", uint32(oldUEID)), zap.Uint32("new", uint32(newUEID)))
}

// NotifyNewGUTI implements MMEAPI.
func (m *MemoryStore) NotifyNewGUTI(ueid emmcontext.UEID, guti emmcontext.GUTI) {
	m.logger.Info("new guti assigned", zap.Uint32("ueid", uint32(ueid)), zap.Uint32("mtmsi", guti.MTMSI))
}

// FindMNCLength implements MMEAPI.
func (m *MemoryStore) FindMNCLength(imsiDigits [6]byte) (int, error) {
	return FindMNCLength(imsiDigits[:], m.homeMCC, m.homeMNC)
}

// RequestAuthInfo implements MMEAPI: it records req as pending and
// returns. No vector is generated here; ResolvePending or
// ResolveAllPending produces the reply later.
func (m *MemoryStore) RequestAuthInfo(req AuthInfoRequest) error {
	m.mu.Lock()
	m.pending[req.CorrelationID] = req
	m.mu.Unlock()
	return nil
}

// ResolvePending generates the vector for a pending request and removes
// it from the pending set; the caller (in this repository, a test) then
// delivers the resulting AuthInfoResponse back to the coordinator.
func (m *MemoryStore) ResolvePending(id uuid.UUID) (AuthInfoResponse, bool) {
	m.mu.Lock()
	req, ok := m.pending[id]
	if ok {
		delete(m.pending, id)
	}
	m.mu.Unlock()
	if !ok {
		return AuthInfoResponse{}, false
	}

	rec, found := m.lookup(req.IMSI)
	if !found {
		return AuthInfoResponse{CorrelationID: id, UEID: req.UEID, Err: ErrNotFound}, true
	}

	vec, err := m.generateVector(rec)
	return AuthInfoResponse{CorrelationID: id, UEID: req.UEID, Vector: vec, Err: err}, true
}

// ResolveAllPending resolves every currently-pending auth-info request,
// draining the pending set. Used by tests driving the IMSI path's
// out-of-band auth-info round trip to completion without needing to
// observe the correlation id the Identify phase generated internally.
func (m *MemoryStore) ResolveAllPending() []AuthInfoResponse {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	out := make([]AuthInfoResponse, 0, len(ids))
	for _, id := range ids {
		if resp, ok := m.ResolvePending(id); ok {
			out = append(out, resp)
		}
	}
	return out
}

func (m *MemoryStore) generateVector(rec *SubscriberRecord) (*emmcontext.AuthVector, error) {
	rand := make([]byte, 16)
	// A real HSS draws RAND from a CSPRNG; determinism here is
	// intentionally simple (SQN-derived) so tests can assert exact
	// vectors without injecting a random source.
	binary.BigEndian.PutUint32(rand[0:4], binary.BigEndian.Uint32(rec.SQN[0:4]))
	snID := []byte(m.homeMCC + m.homeMNC)

	advanceSQN(rec.SQN)

	return GenerateAuthVector(rec.K, rec.OPc, rand, rec.SQN, rec.AMF, snID)
}

func advanceSQN(sqn []byte) {
	for i := len(sqn) - 1; i >= 0; i-- {
		sqn[i]++
		if sqn[i] != 0 {
			return
		}
	}
}
