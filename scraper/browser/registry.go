package browser

import (
	"errors"
	"os"
	"sync"

	"billboard-poi-scraper/utils"
)

// Registry tracks the browser processes this program launched so that leaked
// sessions can be killed without touching unrelated processes on the host.
type Registry struct {
	mu     sync.Mutex
	procs  map[int]*os.Process
	logger *utils.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *utils.Logger) *Registry {
	return &Registry{procs: make(map[int]*os.Process), logger: logger}
}

// Register starts tracking p.
func (r *Registry) Register(p *os.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[p.Pid] = p
}

// Unregister stops tracking p, normally after a clean shutdown.
func (r *Registry) Unregister(p *os.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, p.Pid)
}

// Len returns the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// KillStray kills every tracked process and forgets it. It returns how many
// processes were actually signalled; processes that already exited are skipped.
func (r *Registry) KillStray() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	killed := 0
	for pid, p := range r.procs {
		err := p.Kill()
		switch {
		case err == nil:
			killed++
			r.logger.Warn("[browser] Killed stray browser process %d", pid)
		case errors.Is(err, os.ErrProcessDone):
		default:
			r.logger.Error("[browser] Failed to kill process %d: %v", pid, err)
		}
		delete(r.procs, pid)
	}
	return killed
}
