package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// idgen hands out short room codes. Codes stay reserved until the lobby
// disposes them so a dying room's id cannot be reissued while clients may
// still hold it.
type idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() *idgen {
	return &idgen{ids: make(map[string]struct{})}
}

func (g *idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()

	for {
		id := strings.Split(uuid.NewString(), "-")[0]
		if _, taken := g.ids[id]; taken {
			continue
		}
		g.ids[id] = struct{}{}
		return id
	}
}

func (g *idgen) Dispose(id string) {
	g.locker.Lock()
	delete(g.ids, id)
	g.locker.Unlock()
}
