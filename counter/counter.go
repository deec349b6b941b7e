// counter/counter.go
package counter

import (
	"context"
	"sync"
	"time"
)

// Counter é a visão em memória de um registro de contador.
//
// O snapshot local é apenas indicativo: incrementos feitos por outros
// processos só aparecem após Refresh. Toda mutação de count acontece no
// servidor via AddCount, nunca por sobrescrita.
type Counter struct {
	mu     sync.RWMutex
	record Record
	store  *Store
}

func (c *Counter) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Name
}

func (c *Counter) Count() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Count
}

func (c *Counter) CreatedOn() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.CreatedOn
}

func (c *Counter) ModifiedOn() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.ModifiedOn
}

// Extra devolve uma cópia dos atributos extras definidos na criação.
func (c *Counter) Extra() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Clone().Extra
}

// Snapshot devolve uma cópia do registro local.
func (c *Counter) Snapshot() Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Clone()
}

// Refresh relê o registro no store e substitui o snapshot inteiro.
func (c *Counter) Refresh(ctx context.Context) error {
	rec, err := c.store.fetch(ctx, c.Name())
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.record = rec
	c.mu.Unlock()
	return nil
}

// Increment soma amount ao contador no servidor e devolve o novo valor.
// Erros do store são propagados sem retry: uma soma relativa não é
// idempotente, a política de retry fica com o chamador.
func (c *Counter) Increment(ctx context.Context, amount int64) (int64, error) {
	upd, err := c.store.add(ctx, c.Name(), amount)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record.Count = upd.Count
	c.record.ModifiedOn = upd.ModifiedOn
	return upd.Count, nil
}

// Decrement equivale a Increment(ctx, -amount). math.MinInt64 é rejeitado
// com ErrInvalidAmount antes de qualquer chamada ao store.
func (c *Counter) Decrement(ctx context.Context, amount int64) (int64, error) {
	delta, err := Negate(amount)
	if err != nil {
		return 0, err
	}
	return c.Increment(ctx, delta)
}

// Inc incrementa em 1.
func (c *Counter) Inc(ctx context.Context) (int64, error) {
	return c.Increment(ctx, 1)
}

// Dec decrementa em 1.
func (c *Counter) Dec(ctx context.Context) (int64, error) {
	return c.Increment(ctx, -1)
}
