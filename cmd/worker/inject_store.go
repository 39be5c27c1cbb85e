package main

import (
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/wire"
	"github.com/pandodao/coffee-wallet/store/db"
	"github.com/pandodao/coffee-wallet/store/friend"
	"github.com/pandodao/coffee-wallet/store/ledger"
	"github.com/pandodao/coffee-wallet/store/property"
	"github.com/pandodao/coffee-wallet/store/transaction"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"
)

var storeSet = wire.NewSet(
	provideDB,
	friend.New,
	ledger.New,
	transaction.New,
	property.New,
)

// the memory store lives inside the server process, which settles its own sends
var errMemoryDriver = errors.New(`db.driver "memory" is served by the server alone, run the worker against mysql`)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.initial_balance", 0)

	driver := v.GetString("db.driver")
	if driver == "memory" {
		return nil, nil, errMemoryDriver
	}

	dsn := v.GetString("db.dsn")
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
