package cache

import (
	"github.com/benline/priority-gateway/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps recently fetched orders keyed by ORDNAME so repeat lookups
// don't hit the ERP again.
type Cache struct {
	size int
	lru  *lru.Cache[string, domain.Order]
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[string, domain.Order](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		size: size,
		lru:  c,
	}, nil
}

// Warm loads a full fetch result into the cache. Orders without a name
// are skipped.
func (c *Cache) Warm(orders []domain.Order) {
	for _, o := range orders {
		c.Set(o)
	}
}

func (c *Cache) Get(name string) (domain.Order, bool) {
	return c.lru.Get(name)
}

func (c *Cache) Set(order domain.Order) {
	name := order.Name()
	if name == "" {
		return
	}
	c.lru.Add(name, order)
}

func (c *Cache) Len() int { return c.lru.Len() }
