package main

import (
	"context"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/wire"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/store/db"
	"github.com/pandodao/coffee-wallet/store/friend"
	"github.com/pandodao/coffee-wallet/store/ledger"
	"github.com/pandodao/coffee-wallet/store/memory"
	"github.com/pandodao/coffee-wallet/store/transaction"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

const driverMemory = "memory"

var storeSet = wire.NewSet(
	provideDB,
	provideMemory,
	provideFriendStore,
	provideTransactionStore,
	provideBaseLedger,
)

// baseLedger is the ledger before notifications are attached.
type baseLedger core.Ledger

// provideDB opens the master and any read replicas. The dsn needs parseTime=true.
// With the memory driver it returns a nil db.
func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.initial_balance", 0)

	driver := v.GetString("db.driver")
	if driver == driverMemory {
		return nil, func() {}, nil
	}

	dsn := v.GetString("db.dsn")
	for _, replica := range v.GetStringSlice("db.replicas") {
		dsn += ";" + replica
	}

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master(), db.MigrateData{
		InitialBalance: v.GetInt64("db.initial_balance"),
	}); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}

// provideMemory seeds the demo accounts listed under db.accounts.
func provideMemory(v *viper.Viper) (*memory.Store, error) {
	mem := memory.New()
	if v.GetString("db.driver") != driverMemory {
		return mem, nil
	}

	err := mem.Seed(context.Background(), v.GetStringSlice("db.accounts"), v.GetInt64("db.initial_balance"), memory.DemoFriends)
	return mem, err
}

func provideFriendStore(conn *nap.DB, mem *memory.Store) core.FriendStore {
	if conn == nil {
		return mem.Friends()
	}

	return friend.New(conn)
}

func provideTransactionStore(conn *nap.DB, mem *memory.Store) core.TransactionStore {
	if conn == nil {
		return mem.Transactions()
	}

	return transaction.New(conn)
}

func provideBaseLedger(conn *nap.DB, mem *memory.Store) baseLedger {
	if conn == nil {
		return mem
	}

	return ledger.New(conn)
}

func pingDB(conn *nap.DB) func(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	return func(ctx context.Context) error {
		return conn.Master().PingContext(ctx)
	}
}
