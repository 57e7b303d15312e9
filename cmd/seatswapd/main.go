package main

import (
	"flag"
	"log"
	"math/big"
	"net/http"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"seatswap/config"
	"seatswap/core/events"
	"seatswap/gateway"
	"seatswap/ledger"
	"seatswap/native/fees"
	"seatswap/native/market"
	"seatswap/observability/logging"
	"seatswap/storage"
)

func main() {
	configPath := flag.String("config", "seatswap.toml", "path to the service configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.Setup("seatswapd", cfg.Environment, logging.FileConfig{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	secret, err := cfg.JWTSecret()
	if err != nil {
		log.Fatalf("jwt secret error: %v", err)
	}

	owner, err := config.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		log.Fatalf("owner address error: %v", err)
	}
	platform := owner
	if cfg.PlatformAddress != "" {
		if platform, err = config.ParseAddress(cfg.PlatformAddress); err != nil {
			log.Fatalf("platform address error: %v", err)
		}
	}

	led := ledger.NewMemory()
	for _, acct := range cfg.Genesis {
		addr, addrErr := config.ParseAddress(acct.Address)
		if addrErr != nil {
			log.Fatalf("genesis address error: %v", addrErr)
		}
		led.Mint(addr, big.NewInt(acct.Balance))
	}

	registry, err := market.NewRegistry(market.Config{
		Owner:    owner,
		Platform: platform,
		Deposit:  big.NewInt(cfg.Deposit),
		Policy: fees.Policy{
			PlatformFeePercent: cfg.PlatformFeePct,
			PerTicketFee:       cfg.PerTicketFee,
			DisputeFeePercent:  cfg.DisputeFeePct,
		},
		Ledger: led,
	})
	if err != nil {
		log.Fatalf("registry error: %v", err)
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}

	store, err := storage.New(db)
	if err != nil {
		log.Fatalf("storage error: %v", err)
	}

	registry.SetEmitter(events.FuncEmitter(func(evt *events.Event) {
		if err := store.RecordEvent(evt); err != nil {
			logger.Error("record event", "type", evt.Type, "err", err)
		}
	}))

	srv := gateway.New(gateway.Config{
		Registry:          registry,
		Store:             store,
		Ledger:            led,
		JWTSecret:         secret,
		Logger:            logger,
		RequestsPerMinute: cfg.RequestsPerMinute,
		RateBurst:         cfg.RateBurst,
	})

	logger.Info("starting seatswapd", "addr", cfg.ListenAddress)
	if err := http.ListenAndServe(cfg.ListenAddress, srv.Handler()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
