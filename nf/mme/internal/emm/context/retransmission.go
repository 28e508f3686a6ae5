package context

import (
	"sync"

	"github.com/google/uuid"
)

// RetransmissionRecord is the Attach Retransmission Record: created when
// Attach Accept is emitted, owned by the Attach Coordinator until Attach
// Complete or abort (spec.md §3). ID is a supplemented per-record uuid;
// the RetransmissionStore and the T3450 expiry handler address records by
// UEID, not by ID.
type RetransmissionRecord struct {
	ID                   uuid.UUID
	UEID                 UEID
	RetransmissionCount  int
	ESMMsg               []byte
}

// NewRetransmissionRecord allocates a record with retransmission_count=0
// and a deep copy of esmMsg, the ESM reply to retransmit verbatim on
// T3450 expiry.
func NewRetransmissionRecord(ueid UEID, esmMsg []byte) *RetransmissionRecord {
	cp := make([]byte, len(esmMsg))
	copy(cp, esmMsg)
	return &RetransmissionRecord{
		ID:                  uuid.New(),
		UEID:                ueid,
		RetransmissionCount: 0,
		ESMMsg:              cp,
	}
}

// RetransmissionStore holds at most one outstanding RetransmissionRecord
// per ueid, guarded the same way the Context Store is.
type RetransmissionStore struct {
	mu      sync.RWMutex
	records map[UEID]*RetransmissionRecord
}

// NewRetransmissionStore creates an empty RetransmissionStore.
func NewRetransmissionStore() *RetransmissionStore {
	return &RetransmissionStore{
		records: make(map[UEID]*RetransmissionRecord),
	}
}

// Put installs rec as the outstanding record for its UEID, replacing any
// prior record for the same UE.
func (s *RetransmissionStore) Put(rec *RetransmissionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.UEID] = rec
}

// Get returns the outstanding record for ueid, if any.
func (s *RetransmissionStore) Get(ueid UEID) (*RetransmissionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[ueid]
	return rec, ok
}

// Release frees the record for ueid (Attach Complete or abort consume it
// exactly once, per spec.md §5 "Shared-resource policy").
func (s *RetransmissionStore) Release(ueid UEID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, ueid)
}

