package media

import (
	"sync"
)

// Cell はUIから購読できる1つの状態値
type Cell[T any] struct {
	value       T
	subscribers map[int]func(T)
	nextID      int
	mu          sync.RWMutex
}

// NewCell は初期値を持つCellを作成する
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value:       initial,
		subscribers: make(map[int]func(T)),
	}
}

// Get は現在の値を返す
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set は値を置き換えて購読者に通知する
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	subs := c.snapshotLocked()
	c.mu.Unlock()

	// 通知はロック外で行う
	for _, fn := range subs {
		fn(value)
	}
}

// Subscribe は購読を開始する。fnは現在値で即座に一度呼ばれる。
// 戻り値の関数で購読を解除する
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	current := c.value
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

// snapshotLocked は購読者一覧のコピーを返す（ロック済み前提）
func (c *Cell[T]) snapshotLocked() []func(T) {
	subs := make([]func(T), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
