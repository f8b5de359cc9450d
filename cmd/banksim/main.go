// Command banksim wires the ledger together and runs a contention
// simulation: concurrent deposits and withdrawals on one account plus
// opposite-direction transfers between a pair, with the live event feed on
// stdout.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banklab/concurrent-ledger/internal/bank"
	"github.com/banklab/concurrent-ledger/internal/config"
	"github.com/banklab/concurrent-ledger/internal/engine"
	"github.com/banklab/concurrent-ledger/internal/events/kafka"
	"github.com/banklab/concurrent-ledger/internal/interfaces"
	"github.com/banklab/concurrent-ledger/internal/storage/memory"
	"github.com/banklab/concurrent-ledger/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var store interfaces.LedgerStore
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		db.SetMaxOpenConns(cfg.Workers)
		pg := postgres.NewPostgresLedgerStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("ensure schema", zap.Error(err))
		}
		store = pg
		logger.Info("using postgres store")
	} else {
		store = memory.NewMemoryLedgerStore()
		logger.Info("using in-memory store")
	}

	service := bank.NewService(store, logger, engine.Config{
		Workers:       cfg.Workers,
		ShutdownGrace: cfg.ShutdownGrace,
	})
	service.Attach(&consoleSubscriber{})

	if len(cfg.KafkaBrokers) > 0 {
		sink := kafka.NewSubscriber(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		service.Attach(sink)
		defer sink.Close()
		logger.Info("kafka event sink attached", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	if err := runSimulation(ctx, service); err != nil {
		logger.Error("simulation", zap.Error(err))
	}

	if err := service.Close(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func runSimulation(ctx context.Context, service *bank.Service) error {
	alice, err := service.OpenAccount(ctx, "Alice", decimal.NewFromInt(1000))
	if err != nil {
		return err
	}
	bob, err := service.OpenAccount(ctx, "Bob", decimal.NewFromInt(100))
	if err != nil {
		return err
	}

	ten := decimal.NewFromInt(10)
	var handles []*engine.Handle

	// Contended single-account traffic on Alice.
	for i := 0; i < 30; i++ {
		handles = append(handles, service.Deposit(alice.ID, ten))
	}
	for i := 0; i < 10; i++ {
		handles = append(handles, service.Withdraw(alice.ID, ten))
	}

	// Opposite-direction transfers between the pair; the lock ordering keeps
	// these deadlock-free.
	for i := 0; i < 10; i++ {
		handles = append(handles, service.Transfer(alice.ID, bob.ID, ten))
		handles = append(handles, service.Transfer(bob.ID, alice.ID, ten))
	}

	// A few rejections so the feed shows the failure path too.
	handles = append(handles,
		service.Withdraw(bob.ID, decimal.NewFromInt(1_000_000)),
		service.Deposit(alice.ID, decimal.NewFromInt(-5)),
		service.Transfer(alice.ID, alice.ID, ten),
	)

	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			// Expected for the rejection cases; the event feed carries them.
			continue
		}
	}

	for _, id := range []int64{alice.ID, bob.ID} {
		details, err := service.AccountDetails(ctx, id)
		if err != nil {
			return err
		}
		history, err := service.History(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s — %d ledger records\n", details, len(history))
	}
	return nil
}
