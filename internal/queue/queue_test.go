package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testItem is a simple struct for testing the generic queue
type testItem struct {
	ID   int
	Name string
}

func ids(items []testItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQueue_New(t *testing.T) {
	q := New[testItem]()
	require.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Push(t *testing.T) {
	q := New[testItem]()

	q.Push(testItem{ID: 1, Name: "first"})
	assert.Equal(t, 1, q.Len())

	q.Push(testItem{ID: 2}, testItem{ID: 3})
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.Empty())
}

func TestQueue_Drain(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3})

	assert.Equal(t, []int{1, 2, 3}, ids(q.Drain()))
	assert.True(t, q.Empty())
	assert.Empty(t, q.Drain())

	q.Push(testItem{ID: 4})
	assert.Equal(t, []int{4}, ids(q.Drain()))
}

func TestQueue_Requeue(t *testing.T) {
	q := New[testItem]()
	q.Push(testItem{ID: 1}, testItem{ID: 2})
	batch := q.Drain()
	q.Push(testItem{ID: 3})

	q.Requeue(batch...)
	assert.Equal(t, []int{1, 2, 3}, ids(q.Drain()))

	q.Requeue()
	assert.True(t, q.Empty())
}

func TestQueue_Bounded(t *testing.T) {
	q := NewBounded[testItem](3)
	q.Push(testItem{ID: 1}, testItem{ID: 2}, testItem{ID: 3}, testItem{ID: 4})

	assert.Equal(t, 3, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	q.Requeue(testItem{ID: 0})
	assert.Equal(t, uint64(2), q.Dropped())
	assert.Equal(t, []int{2, 3, 4}, ids(q.Drain()))
}

func TestQueue_BoundedZeroIsUnbounded(t *testing.T) {
	q := NewBounded[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	assert.Equal(t, 100, q.Len())
	assert.Zero(t, q.Dropped())
}

func TestQueue_Concurrent(t *testing.T) {
	q := New[testItem]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(testItem{ID: base*100 + j})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, q.Len())
}

func TestQueue_ConcurrentDrain(t *testing.T) {
	q := New[testItem]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				q.Push(testItem{ID: j})
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				n := len(q.Drain())
				mu.Lock()
				total += n
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total += len(q.Drain())
	assert.Equal(t, 1000, total)
}
