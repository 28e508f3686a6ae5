package mmeapi

import (
	"context"
	"fmt"

	chdriver "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// ClickHouseConfig holds the connection parameters for the subscriber
// database, mirrored from nf/udr/internal/config/config.go's ClickHouse
// block.
type ClickHouseConfig struct {
	Addr     []string
	Database string
	Username string
	Password string
}

// ClickHouseStore is an MMEAPI implementation backed by ClickHouse,
// grounded on nf/udr/internal/repository/repository.go's
// ClickHouseRepository (parameterized Exec/QueryRow calls, one logger
// line per mutation) but talking directly to driver.Conn from
// github.com/ClickHouse/clickhouse-go/v2 rather than through the
// teacher's own unretrieved internal/clickhouse wrapper package.
type ClickHouseStore struct {
	conn       driver.Conn
	logger     *zap.Logger
	homeMCC    string
	homeMNC    string
	mmeGroupID uint16
	mmeCode    uint8
	tac        uint16
}

// NewClickHouseStore opens a ClickHouse connection and returns a store
// ready to serve MMEAPI calls.
func NewClickHouseStore(cfg ClickHouseConfig, mem MemoryStoreConfig, logger *zap.Logger) (*ClickHouseStore, error) {
	conn, err := chdriver.Open(&chdriver.Options{
		Addr: cfg.Addr,
		Auth: chdriver.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	return &ClickHouseStore{
		conn:       conn,
		logger:     logger,
		homeMCC:    mem.HomeMCC,
		homeMNC:    mem.HomeMNC,
		mmeGroupID: mem.MMEGroupID,
		mmeCode:    mem.MMECode,
		tac:        mem.TAC,
	}, nil
}

// Ping checks database connectivity.
func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// IdentifyIMSI implements MMEAPI: looks up subscriber key material,
// writes the advanced SQN back with a separate UPDATE, and generates an
// auth vector.
func (c *ClickHouseStore) IdentifyIMSI(ctx context.Context, imsi []byte) (*emmcontext.AuthVector, error) {
	rec, err := c.loadSubscriber(ctx, string(imsi))
	if err != nil {
		return nil, err
	}
	return c.generateAndAdvance(ctx, rec)
}

// IdentifyGUTI implements MMEAPI.
func (c *ClickHouseStore) IdentifyGUTI(ctx context.Context, guti emmcontext.GUTI) ([]byte, *emmcontext.AuthVector, error) {
	row := c.conn.QueryRow(ctx, `
		SELECT imsi FROM mme.guti_allocations
		WHERE mcc = ? AND mnc = ? AND mme_group_id = ? AND mme_code = ? AND m_tmsi = ?
		ORDER BY allocated_at DESC LIMIT 1
	`, guti.GUMMEI.PLMN.MCC, guti.GUMMEI.PLMN.MNC, guti.GUMMEI.MMEGroupID, guti.GUMMEI.MMECode, guti.MTMSI)

	var imsi string
	if err := row.Scan(&imsi); err != nil {
		return nil, nil, fmt.Errorf("%w: guti: %v", ErrNotFound, err)
	}

	rec, err := c.loadSubscriber(ctx, imsi)
	if err != nil {
		return nil, nil, err
	}
	vec, err := c.generateAndAdvance(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return []byte(imsi), vec, nil
}

// IdentifyIMEI implements MMEAPI.
func (c *ClickHouseStore) IdentifyIMEI(ctx context.Context, imei []byte) error {
	row := c.conn.QueryRow(ctx, `SELECT count() FROM mme.known_imeis WHERE imei = ?`, string(imei))
	var count uint64
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("failed to query known imeis: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: imei", ErrNotFound)
	}
	return nil
}

// NewGUTI implements MMEAPI: allocates a fresh m-TMSI and records the
// allocation so a later IdentifyGUTI can resolve it back to this IMSI.
func (c *ClickHouseStore) NewGUTI(ctx context.Context, imsi []byte) (GUTIAllocation, error) {
	mncLen, err := FindMNCLength(imsi, c.homeMCC, c.homeMNC)
	if err != nil {
		return GUTIAllocation{}, err
	}

	row := c.conn.QueryRow(ctx, `SELECT max(m_tmsi) FROM mme.guti_allocations`)
	var maxTMSI uint32
	_ = row.Scan(&maxTMSI) // no rows yet is not an error; maxTMSI stays 0

	mTMSI := maxTMSI + 1
	guti, err := SynthesizeGUTI(imsi, c.mmeGroupID, c.mmeCode, mncLen, mTMSI)
	if err != nil {
		return GUTIAllocation{}, err
	}

	err = c.conn.Exec(ctx, `
		INSERT INTO mme.guti_allocations (mcc, mnc, mme_group_id, mme_code, m_tmsi, imsi, allocated_at)
		VALUES (?, ?, ?, ?, ?, ?, now())
	`, guti.GUMMEI.PLMN.MCC, guti.GUMMEI.PLMN.MNC, guti.GUMMEI.MMEGroupID, guti.GUMMEI.MMECode, guti.MTMSI, string(imsi))
	if err != nil {
		return GUTIAllocation{}, fmt.Errorf("failed to record guti allocation: %w", err)
	}

	return GUTIAllocation{GUTI: guti, TAC: c.tac, NTacs: 1}, nil
}

// NotifyUEIDChanged implements MMEAPI.
func (c *ClickHouseStore) NotifyUEIDChanged(oldUEID, newUEID emmcontext.UEID) {
	c.logger.Info("ue id changed", zap.Uint32("old", uint32(oldUEID)), zap.Uint32("new", uint32(newUEID)))
}

// NotifyNewGUTI implements MMEAPI.
func (c *ClickHouseStore) NotifyNewGUTI(ueid emmcontext.UEID, guti emmcontext.GUTI) {
	c.logger.Info("new guti assigned", zap.Uint32("ueid", uint32(ueid)), zap.Uint32("mtmsi", guti.MTMSI))
}

// FindMNCLength implements MMEAPI.
func (c *ClickHouseStore) FindMNCLength(imsiDigits [6]byte) (int, error) {
	return FindMNCLength(imsiDigits[:], c.homeMCC, c.homeMNC)
}

// RequestAuthInfo implements MMEAPI. ClickHouse generates the vector
// synchronously from stored key material, same as MemoryStore.
func (c *ClickHouseStore) RequestAuthInfo(req AuthInfoRequest) error {
	c.logger.Debug("auth info requested", zap.String("correlation_id", req.CorrelationID.String()))
	return nil
}

func (c *ClickHouseStore) loadSubscriber(ctx context.Context, imsi string) (*SubscriberRecord, error) {
	row := c.conn.QueryRow(ctx, `
		SELECT k, opc, sqn, amf FROM mme.subscribers WHERE imsi = ?
	`, imsi)

	var k, opc, sqn, amf []byte
	if err := row.Scan(&k, &opc, &sqn, &amf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return &SubscriberRecord{IMSI: []byte(imsi), K: k, OPc: opc, SQN: sqn, AMF: amf}, nil
}

func (c *ClickHouseStore) generateAndAdvance(ctx context.Context, rec *SubscriberRecord) (*emmcontext.AuthVector, error) {
	rand := make([]byte, 16)
	copy(rand, rec.SQN)
	snID := []byte(c.homeMCC + c.homeMNC)

	advanceSQN(rec.SQN)
	if err := c.conn.Exec(ctx, `ALTER TABLE mme.subscribers UPDATE sqn = ? WHERE imsi = ?`, rec.SQN, string(rec.IMSI)); err != nil {
		return nil, fmt.Errorf("failed to advance sqn: %w", err)
	}

	return GenerateAuthVector(rec.K, rec.OPc, rand, rec.SQN, rec.AMF, snID)
}
