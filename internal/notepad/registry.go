package notepad

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukerupert/notepad/internal/model"
)

type entry struct {
	pad  *Pad
	once sync.Once
}

// Registry holds one Pad per authenticated session.
type Registry struct {
	api    API
	logger *slog.Logger

	mu       sync.Mutex
	pads     map[string]*entry
	onChange func(key string, total int)
}

func NewRegistry(api API, logger *slog.Logger) *Registry {
	return &Registry{
		api:    api,
		logger: logger,
		pads:   make(map[string]*entry),
	}
}

// OnChange registers fn to run after any pad's collection changes.
func (r *Registry) OnChange(fn func(key string, total int)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Registry) notify(key string, total int) {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(key, total)
	}
}

// Get returns the pad for key, creating and loading it on first access. The
// load toast is returned only to the caller that performed the load.
func (r *Registry) Get(ctx context.Context, key string) (*Pad, model.Toast) {
	r.mu.Lock()
	e, ok := r.pads[key]
	if !ok {
		pad := NewPad(r.api, r.logger.With("session", key))
		pad.onChange = func(total int) { r.notify(key, total) }
		e = &entry{pad: pad}
		r.pads[key] = e
	}
	r.mu.Unlock()

	var toast model.Toast
	e.once.Do(func() {
		toast = e.pad.Load(ctx)
	})
	return e.pad, toast
}

// Drop discards the pad for key.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.pads, key)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pads)
}
