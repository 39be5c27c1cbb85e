package main

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/pandodao/coffee-wallet/core"
	"github.com/pandodao/coffee-wallet/service/composer"
	"github.com/pandodao/coffee-wallet/service/friend"
	"github.com/pandodao/coffee-wallet/service/notifier"
	"github.com/pandodao/coffee-wallet/service/wallet"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var serviceSet = wire.NewSet(
	friend.New,
	notifier.New,
	provideLedger,
	provideWalletConfig,
	wallet.New,
	provideRegistryConfig,
	composer.NewRegistry,
)

// provideLedger publishes every commit made through the server to websocket subscribers.
func provideLedger(base baseLedger, hub *notifier.Hub) core.Ledger {
	return notifier.Ledger(base, hub)
}

func provideWalletConfig(v *viper.Viper, logger *slog.Logger) wallet.Config {
	v.SetDefault("wallet.coin_price", "4.5")
	v.SetDefault("wallet.recent_limit", 20)

	price, err := decimal.NewFromString(v.GetString("wallet.coin_price"))
	if err != nil {
		logger.Warn("invalid wallet.coin_price, fall back to zero", "err", err)
	}

	return wallet.Config{
		CoinPrice:   price,
		RecentLimit: v.GetInt("wallet.recent_limit"),
	}
}

func provideRegistryConfig(v *viper.Viper) composer.RegistryConfig {
	v.SetDefault("api.max_sessions", 4096)

	return composer.RegistryConfig{
		Capacity: v.GetInt("api.max_sessions"),
	}
}
