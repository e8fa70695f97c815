package main

import (
	"encoding/hex"
	"flag"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"tokenvest/config"
	"tokenvest/core/events"
	"tokenvest/core/types"
	"tokenvest/native/bank"
	"tokenvest/native/vesting"
	"tokenvest/observability/logging"
	"tokenvest/rpc"
	statevesting "tokenvest/state/vesting"
	"tokenvest/storage"
)

// slogEmitter publishes ledger events as structured log lines.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if payload, ok := evt.(interface{ Event() *types.Event }); ok {
		if structured := payload.Event(); structured != nil {
			for key, value := range structured.Attributes {
				attrs = append(attrs, slog.String(key, value))
			}
		}
	}
	e.logger.Info("ledger event", attrs...)
}

func main() {
	configFile := flag.String("config", "./vestd.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("VESTD_ENV"))
	logger := logging.Setup("vestd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("error", err))
		os.Exit(1)
	}

	admin, _ := cfg.Admin()
	tokenAddr, _ := cfg.Token()
	vault, _ := cfg.Vault()
	supply, _ := cfg.Supply()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	emitter := slogEmitter{logger: logger}

	token := bank.NewLedger(db, cfg.TokenSymbol, tokenAddr)
	token.SetEmitter(emitter)
	generated, err := token.Generated()
	if err != nil {
		logger.Error("failed to read token supply", slog.Any("error", err))
		os.Exit(1)
	}
	if !generated {
		if err := token.Generate(vault, supply); err != nil {
			logger.Error("failed to generate supply", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("generated fixed supply",
			slog.String("supply", supply.String()),
			slog.String("vault", hex.EncodeToString(vault[:])))
	}

	engine := vesting.NewEngine()
	engine.SetState(statevesting.NewManager(db))
	engine.SetToken(token)
	engine.SetVault(vault)
	engine.SetAdmin(admin)
	engine.SetEmitter(emitter)
	// Foreign tokens share the key-value store; a rescue is a plain transfer
	// on the foreign ledger, out of the vault.
	engine.SetRescueTransfer(func(foreign [20]byte, to [20]byte, amount *big.Int) error {
		ledger := bank.NewLedger(db, hex.EncodeToString(foreign[:]), foreign)
		return ledger.Transfer(vault, to, amount)
	})

	srv := rpc.NewServer(engine, token, logger)
	if err := srv.Start(cfg.ListenAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
