package cover

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// expiryBuffer refreshes tokens slightly before their reported expiry so
// a request never runs with a token that dies mid-flight.
const expiryBuffer = 60 * time.Second

// tokenCache holds one client-credentials token and refreshes it lazily
// on expiry.
type tokenCache struct {
	conf *clientcredentials.Config

	mutex sync.Mutex
	token *oauth2.Token
}

func newTokenCache(conf *clientcredentials.Config) *tokenCache {
	return &tokenCache{conf: conf}
}

// Get returns the cached token, fetching a fresh one when the cache is
// empty or the token expires within the buffer.
func (c *tokenCache) Get(ctx context.Context) (*oauth2.Token, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.token != nil && time.Until(c.token.Expiry) > expiryBuffer {
		return c.token, nil
	}

	token, err := c.conf.Token(ctx)
	if err != nil {
		return nil, err
	}
	c.token = token

	return token, nil
}
