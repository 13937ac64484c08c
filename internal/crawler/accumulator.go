package crawler

import (
	"sort"
	"sync"

	"github.com/m-zajac/contribcount/internal/app"
)

// accumulator sums commits per identity key. Safe for concurrent use.
type accumulator struct {
	m     sync.Mutex
	byKey map[string]*app.Contributor
	order []string
}

func newAccumulator() *accumulator {
	return &accumulator{
		byKey: make(map[string]*app.Contributor),
	}
}

// add counts one commit for key. c is stored only on first sight of key.
func (a *accumulator) add(key string, c app.Contributor) {
	a.m.Lock()
	defer a.m.Unlock()

	el, ok := a.byKey[key]
	if !ok {
		c.Contributions = 0
		el = &c
		a.byKey[key] = el
		a.order = append(a.order, key)
	}
	el.Contributions++
}

func (a *accumulator) len() int {
	a.m.Lock()
	defer a.m.Unlock()

	return len(a.byKey)
}

// sorted returns contributors by contributions, descending. Ties keep first-seen order.
func (a *accumulator) sorted() []app.Contributor {
	a.m.Lock()
	defer a.m.Unlock()

	result := make([]app.Contributor, 0, len(a.order))
	for _, key := range a.order {
		result = append(result, *a.byKey[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Contributions > result[j].Contributions
	})

	return result
}
