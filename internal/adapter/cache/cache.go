// Package cache provides a container listing cache for providers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KVStore provides simple kv data storage
type KVStore interface {
	ReadKey(key []byte) ([]byte, error)
	UpdateKey(key []byte, data []byte) error
}

// ContainerCache wraps app.Provider and keeps container listing pages in a KVStore.
//
// Entries are scoped by platform, base url and token, so a listing visible with one token is never
// served to another. Commit listings always go to the wrapped provider.
type ContainerCache struct {
	app.Provider

	store KVStore
	scope string
	ttl   time.Duration
	l     logrus.FieldLogger
	now   func() time.Time
}

// NewContainerCache creates new ContainerCache instance.
func NewContainerCache(
	provider app.Provider,
	store KVStore,
	baseURL string,
	token string,
	ttl time.Duration,
	l logrus.FieldLogger,
) *ContainerCache {
	return &ContainerCache{
		Provider: provider,
		store:    store,
		scope:    scope(provider.Platform(), baseURL, token),
		ttl:      ttl,
		l:        l,
		now:      time.Now,
	}
}

// ListContainers returns containers page from store if it's fresh, otherwise calls wrapped provider and saves its result.
// Store failures are logged and never fail the call.
func (c *ContainerCache) ListContainers(ctx context.Context, org string, page int, perPage int) ([]app.Container, error) {
	key := c.key(org, page, perPage)

	data, err := c.store.ReadKey(key)
	if err != nil {
		c.l.Warnf("reading containers cache: %v", err)
	}
	if data != nil {
		entry, err := unserialize(data)
		switch {
		case err != nil:
			c.l.Warnf("unserializing containers cache entry: %v", err)
		case time.Unix(entry.Created, 0).Add(c.ttl).After(c.now()):
			return entry.Data, nil
		}
	}

	containers, err := c.Provider.ListContainers(ctx, org, page, perPage)
	if err != nil {
		return containers, err
	}

	dbdata, err := serialize(entry{
		Created: c.now().Unix(),
		Data:    containers,
	})
	if err != nil {
		c.l.Warnf("serializing containers cache entry: %v", err)
		return containers, nil
	}
	if err := c.store.UpdateKey(key, dbdata); err != nil {
		c.l.Warnf("writing containers cache: %v", err)
	}

	return containers, nil
}

// Probe passes the call to wrapped provider. Probes are never cached.
func (c *ContainerCache) Probe(ctx context.Context, org string, count int) (*app.ProbeResult, error) {
	prober, ok := c.Provider.(app.Prober)
	if !ok {
		return nil, app.InvalidRequestError(fmt.Sprintf("platform %s doesn't support probing", c.Platform()))
	}

	return prober.Probe(ctx, org, count)
}

func (c *ContainerCache) key(org string, page int, perPage int) []byte {
	return []byte(fmt.Sprintf("ct/%s/%s/%d/%d", c.scope, strings.ToLower(org), perPage, page))
}

// scope identifies the data visibility boundary. The token is hashed, never stored.
func scope(platform app.Platform, baseURL string, token string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(baseURL, "/") + "\x00" + token))
	return string(platform) + "/" + hex.EncodeToString(sum[:8])
}

type entry struct {
	Created int64
	Data    []app.Container
}

func serialize(e entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshalling json: %w", err)
	}

	return data, nil
}

func unserialize(data []byte) (*entry, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshalling json: %w", err)
	}

	return &e, nil
}
