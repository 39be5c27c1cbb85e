package main

import (
	"github.com/google/wire"
	"github.com/pandodao/coffee-wallet/worker/settler"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideSettlerConfig,
	settler.New,
)

func provideSettlerConfig(v *viper.Viper) settler.Config {
	v.SetDefault("settler.batch", 100)
	v.SetDefault("settler.concurrency", 8)

	return settler.Config{
		Batch:       v.GetInt("settler.batch"),
		Concurrency: v.GetInt("settler.concurrency"),
	}
}
