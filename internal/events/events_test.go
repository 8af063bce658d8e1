package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_TypeAndString(t *testing.T) {
	cases := []struct {
		ev   Event
		typ  string
		repr string
	}{
		{PageCreated{Name: "Index"}, TypePageCreated, "PageCreated(Index)"},
		{PageUpdated{Name: "Index"}, TypePageUpdated, "PageUpdated(Index)"},
		{PageDeleted{Name: "Index"}, TypePageDeleted, "PageDeleted(Index)"},
		{LinkCreated{From: "A", To: "B"}, TypeLinkCreated, "LinkCreated(A -> B)"},
		{LinkRemoved{From: "A", To: "B"}, TypeLinkRemoved, "LinkRemoved(A -> B)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.typ, tc.ev.Type())
		assert.Equal(t, tc.repr, tc.ev.String())
	}
}

func TestToRecord(t *testing.T) {
	page := ToRecord(PageDeleted{Name: "P"})
	assert.Equal(t, "P", page.PageName())
	assert.Empty(t, page.LinkFrom())
	assert.Empty(t, page.LinkTo())

	link := ToRecord(LinkCreated{From: "Index", To: "About"})
	assert.Empty(t, link.PageName())
	assert.Equal(t, "Index", link.LinkFrom())
	assert.Equal(t, "About", link.LinkTo())

	b, err := json.Marshal(link)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"link_created","from":"Index","to":"About"}`, string(b))
}

func TestQueue_DrainOrderAndOnce(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.IsEmpty())

	q.Push(PageCreated{Name: "A"})
	q.PushAll([]Event{LinkCreated{From: "A", To: "B"}, PageUpdated{Name: "B"}})
	assert.Equal(t, 3, q.Len())

	got := q.DrainAll()
	assert.Equal(t, []Event{
		PageCreated{Name: "A"},
		LinkCreated{From: "A", To: "B"},
		PageUpdated{Name: "B"},
	}, got)
	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.DrainAll())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, per = 8, 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	var drained []Event

	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				q.Push(PageUpdated{Name: "x"})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 50 {
			evs := q.DrainAll()
			mu.Lock()
			drained = append(drained, evs...)
			mu.Unlock()
		}
	}()
	wg.Wait()

	drained = append(drained, q.DrainAll()...)
	assert.Len(t, drained, producers*per)
}

func TestQueue_PushAllKeepsBatchContiguous(t *testing.T) {
	q := NewQueue()
	batch := []Event{PageCreated{Name: "P"}, LinkCreated{From: "P", To: "Q"}, LinkCreated{From: "P", To: "R"}}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				q.PushAll(batch)
				q.Push(PageUpdated{Name: "noise"})
			}
		}()
	}
	wg.Wait()

	got := q.DrainAll()
	require.Len(t, got, 4*100*4)
	for i, e := range got {
		if e == batch[0] {
			require.Equal(t, batch, got[i:i+len(batch)])
		}
	}
	q.PushAll(nil)
	assert.True(t, q.IsEmpty())
}
