package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/epc-mme/common/metrics"
	"github.com/your-org/epc-mme/nf/mme/internal/client"
	"github.com/your-org/epc-mme/nf/mme/internal/config"
	"github.com/your-org/epc-mme/nf/mme/internal/emm/attach"
	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/emmas"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/emmreg"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/esm"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/mmeapi"
	"github.com/your-org/epc-mme/nf/mme/internal/server"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nf/mme/config/mme.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("Starting MME (Mobility Management Entity)",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("sbi_bind", cfg.SBI.BindAddress),
		zap.Int("sbi_port", cfg.SBI.Port),
		zap.String("subscriber_backend", cfg.Subscriber.Backend),
		zap.String("guami", guamiString(cfg)),
	)

	mmeGroupID, mmeCode, tac := parseGUAMI(cfg, logger)

	mmeAPI, err := newMMEAPI(cfg, mmeGroupID, mmeCode, tac, logger)
	if err != nil {
		logger.Fatal("Failed to initialize MME API backend", zap.Error(err))
	}
	logger.Info("MME API backend initialized", zap.String("backend", cfg.Subscriber.Backend))

	store := emmcontext.NewStore()
	retrans := emmcontext.NewRetransmissionStore()

	pdn, err := esm.NewPDNAdapter("10.45.0.0/16", logger)
	if err != nil {
		logger.Fatal("Failed to initialize ESM stand-in", zap.Error(err))
	}

	reg := emmreg.NewAdapter(logger)
	as := emmas.NewAdapter(logger)

	coordCfg := attach.Config{
		EmergencyAttach:     cfg.Features.EmergencyAttach,
		UnauthenticatedIMSI: cfg.Features.UnauthenticatedIMSI,
		T3450Seconds:        cfg.Timers.T3450Seconds,
		AttachCounterMax:    cfg.Timers.AttachCounterMax,
	}
	coordinator := attach.NewCoordinator(coordCfg, store, retrans, mmeAPI, nil, reg, as, pdn, logger)
	logger.Info("Attach Coordinator initialized")

	srv := server.New(server.Config{
		Scheme:      cfg.SBI.Scheme,
		BindAddress: cfg.SBI.BindAddress,
		Port:        cfg.SBI.Port,
		TLSEnabled:  cfg.SBI.TLS.Enabled,
		CertFile:    cfg.SBI.TLS.CertFile,
		KeyFile:     cfg.SBI.TLS.KeyFile,
	}, store, logger)
	srv.SetReleaser(coordinator)

	var metricsServer *metrics.MetricsServer
	if cfg.Observability.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Observability.Metrics.Port, logger)
		go func() {
			logger.Info("Starting metrics server", zap.Int("port", cfg.Observability.Metrics.Port))
			if err := metricsServer.Start(); err != nil {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()
		defer metricsServer.Stop()
	}

	metrics.SetServiceUp(true)
	defer metrics.SetServiceUp(false)

	ctx := context.Background()
	if cfg.NRF.URL != "" {
		nrfClient := client.NewNRFClient(cfg.NRF.URL, logger)

		profile := &client.NFProfile{
			NFInstanceID: cfg.NF.InstanceID,
			NFType:       "MME",
			NFStatus:     "REGISTERED",
			PLMNID: client.PLMNID{
				MCC: cfg.GUAMI.PLMN.MCC,
				MNC: cfg.GUAMI.PLMN.MNC,
			},
			IPv4Addresses: []string{fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)},
			Capacity:      100,
			Priority:      1,
			MMEInfo: &client.MMEInfo{
				GUAMIList: []client.GUAMI{
					{
						PLMNID: client.PLMNID{
							MCC: cfg.GUAMI.PLMN.MCC,
							MNC: cfg.GUAMI.PLMN.MNC,
						},
						MMEGroupID: cfg.GUAMI.MMEGroupID,
						MMECode:    cfg.GUAMI.MMECode,
					},
				},
				TACRangeList: []string{cfg.GUAMI.TAC},
			},
		}

		if err := nrfClient.Register(ctx, profile); err != nil {
			logger.Error("Failed to register with NRF", zap.Error(err))
		} else {
			logger.Info("Registered with NRF")
			metrics.SetNRFRegistered(true)

			heartbeat := time.Duration(cfg.NRF.HeartbeatInterval) * time.Second
			go func() {
				ticker := time.NewTicker(heartbeat)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if err := nrfClient.Heartbeat(ctx, cfg.NF.InstanceID); err != nil {
							logger.Error("Heartbeat failed", zap.Error(err))
							metrics.RecordNRFHeartbeatFailure()
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			defer func() {
				if err := nrfClient.Deregister(context.Background(), cfg.NF.InstanceID); err != nil {
					logger.Error("Failed to deregister from NRF", zap.Error(err))
				}
				metrics.SetNRFRegistered(false)
			}()
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("MME started successfully",
			zap.String("address", fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)),
			zap.String("scheme", cfg.SBI.Scheme),
		)
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to gracefully shutdown server", zap.Error(err))
		}

		logger.Info("MME shutdown complete")
	}
}

// newMMEAPI constructs the MMEAPI backend selected by cfg.Subscriber.Backend.
func newMMEAPI(cfg *config.Config, mmeGroupID uint16, mmeCode uint8, tac uint16, logger *zap.Logger) (mmeapi.MMEAPI, error) {
	memCfg := mmeapi.MemoryStoreConfig{
		HomeMCC:    cfg.GUAMI.PLMN.MCC,
		HomeMNC:    cfg.GUAMI.PLMN.MNC,
		MMEGroupID: mmeGroupID,
		MMECode:    mmeCode,
		TAC:        tac,
	}

	switch cfg.Subscriber.Backend {
	case "clickhouse":
		chCfg := mmeapi.ClickHouseConfig{
			Addr:     cfg.Subscriber.ClickHouse.Addr,
			Database: cfg.Subscriber.ClickHouse.Database,
			Username: cfg.Subscriber.ClickHouse.Username,
			Password: cfg.Subscriber.ClickHouse.Password,
		}
		return mmeapi.NewClickHouseStore(chCfg, memCfg, logger)
	default:
		return mmeapi.NewMemoryStore(memCfg, logger), nil
	}
}

// parseGUAMI decodes the string-typed GUAMI config fields into the
// numeric form the MME API and NAS encoding need, falling back to zero
// and logging a warning on malformed input rather than failing startup.
func parseGUAMI(cfg *config.Config, logger *zap.Logger) (mmeGroupID uint16, mmeCode uint8, tac uint16) {
	if v, err := strconv.ParseUint(cfg.GUAMI.MMEGroupID, 10, 16); err == nil {
		mmeGroupID = uint16(v)
	} else {
		logger.Warn("invalid guami.mme_group_id, defaulting to 0", zap.String("value", cfg.GUAMI.MMEGroupID))
	}

	if v, err := strconv.ParseUint(cfg.GUAMI.MMECode, 10, 8); err == nil {
		mmeCode = uint8(v)
	} else {
		logger.Warn("invalid guami.mme_code, defaulting to 0", zap.String("value", cfg.GUAMI.MMECode))
	}

	if v, err := strconv.ParseUint(cfg.GUAMI.TAC, 10, 16); err == nil {
		tac = uint16(v)
	} else {
		logger.Warn("invalid guami.tac, defaulting to 0", zap.String("value", cfg.GUAMI.TAC))
	}

	return mmeGroupID, mmeCode, tac
}

func guamiString(cfg *config.Config) string {
	return fmt.Sprintf("%s-%s/%s/%s", cfg.GUAMI.PLMN.MCC, cfg.GUAMI.PLMN.MNC, cfg.GUAMI.MMEGroupID, cfg.GUAMI.MMECode)
}

// createLogger creates a structured logger mirroring the teacher's
// zap.NewProductionConfig + ISO8601 time encoder setup.
func createLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
