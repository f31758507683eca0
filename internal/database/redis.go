package database

import (
	"sync"

	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/cache"
	"github.com/JUANMANUELOSCOVALENCIA/backend-cotel-V2-sub000/pkg/config"
)

var (
	tokenStoreInstance *cache.TokenStore
	tokenStoreOnce     sync.Once
)

// GetTokenStore returns the singleton revoked-token store.
func GetTokenStore() *cache.TokenStore {
	tokenStoreOnce.Do(func() {
		cfg := config.GetConfig()
		tokenStoreInstance = cache.NewTokenStore(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return tokenStoreInstance
}

// SetTokenStore swaps the singleton. Used by tests.
func SetTokenStore(store *cache.TokenStore) {
	tokenStoreOnce.Do(func() {})
	tokenStoreInstance = store
}

// CloseTokenStore closes the Redis connection.
func CloseTokenStore() error {
	if tokenStoreInstance != nil {
		return tokenStoreInstance.Close()
	}
	return nil
}
