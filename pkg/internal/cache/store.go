package cache

import (
	"github.com/dgraph-io/ristretto"
	ristrettoCache "github.com/eko/gocache/store/ristretto/v4"
	"github.com/spf13/viper"
)

var S *ristrettoCache.RistrettoStore

func NewStore() error {
	maxCost := viper.GetInt64("performance.cache_max_cost")
	if maxCost <= 0 {
		maxCost = 1 << 26
	}

	inside, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}

	S = ristrettoCache.NewRistretto(inside)
	return nil
}
