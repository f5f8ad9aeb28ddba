package utils

import "sync"

// Increment is a counter safe for use from pool workers.
type Increment struct {
	mu      *sync.Mutex
	counter int
}

func (i *Increment) Increase() int {
	return i.Add(1)
}

func (i *Increment) Add(n int) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.counter += n

	return i.counter
}

func (i *Increment) Value() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.counter
}

func NewIncrement() *Increment {
	return &Increment{
		mu:      new(sync.Mutex),
		counter: 0,
	}
}
