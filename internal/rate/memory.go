package rate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el equivalente in-process de RedisLimiter. Sirve para un
// solo nodo; con varias réplicas cada una cuenta por separado.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	// Add falla si la key ya existe: solo el primer hit abre la ventana
	_ = l.c.Add(key, int64(0), l.Window)
	hits, err := l.c.IncrementInt64(key, 1)
	if err != nil {
		// la entrada expiró entre Add e Increment: ventana nueva
		l.c.Set(key, int64(1), l.Window)
		hits = 1
	}

	var ttl time.Duration
	if _, exp, ok := l.c.GetWithExpiration(key); ok && !exp.IsZero() {
		ttl = exp.Sub(l.now())
	}
	return newResult(hits, l.Max, ttl, l.Window), nil
}
