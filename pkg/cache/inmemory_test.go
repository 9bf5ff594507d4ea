package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("price:AAPL", 190.5, NoExpiration)
	c.Set("name:AAPL", "Apple Inc.", NoExpiration)

	price, ok := GetFromCache[float64](c, "price:AAPL")
	assert.True(t, ok)
	assert.Equal(t, 190.5, price)

	_, ok = GetFromCache[float64](c, "name:AAPL")
	assert.False(t, ok, "type mismatch must report a miss")

	_, ok = GetFromCache[float64](c, "price:MSFT")
	assert.False(t, ok)

	assert.Equal(t, 2, c.ItemCount())
	c.Delete("name:AAPL")
	assert.Equal(t, 1, c.ItemCount())
	c.Flush()
	assert.Equal(t, 0, c.ItemCount())
}

func TestNewCache_InstancesAreIndependent(t *testing.T) {
	a := NewCache(time.Minute, time.Minute)
	b := NewCache(time.Minute, time.Minute)
	a.Set("k", 1, NoExpiration)

	_, ok := b.Get("k")
	assert.False(t, ok)
}
