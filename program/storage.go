package program

import (
	"fmt"
	"sync"
)

type Storager[K comparable, V any] interface {
	Put(k K, v V) error
	Get(k K) (V, error)
}

// MemStore serializes all access through a single goroutine
type MemStore[K comparable, V any] struct {
	putChan  chan *putRequest[K, V]
	readChan chan *getRequest[K, V]
	quitChan chan struct{}
	quitOnce sync.Once
	data     map[K]V
}

type putRequest[K comparable, V any] struct {
	key K
	val V
}

type getRequest[K comparable, V any] struct {
	key      K
	response chan<- *lookupResult[V]
}

type lookupResult[V any] struct {
	val    V
	exists bool
}

func NewMemStore[K comparable, V any]() *MemStore[K, V] {
	s := &MemStore[K, V]{
		putChan:  make(chan *putRequest[K, V]),
		readChan: make(chan *getRequest[K, V]),
		quitChan: make(chan struct{}),
		data:     make(map[K]V),
	}

	go s.handleAccess()
	return s
}

func (s *MemStore[K, V]) handleAccess() {
	for {
		select {
		case req := <-s.putChan:
			s.data[req.key] = req.val
		case req := <-s.readChan:
			v, ok := s.data[req.key]
			req.response <- &lookupResult[V]{
				val:    v,
				exists: ok,
			}
		case <-s.quitChan:
			return
		}
	}
}

func (s *MemStore[K, V]) closed() bool {
	select {
	case <-s.quitChan:
		return true
	default:
		return false
	}
}

func (s *MemStore[K, V]) Put(k K, v V) error {
	if s.closed() {
		return fmt.Errorf("store closed")
	}
	select {
	case s.putChan <- &putRequest[K, V]{key: k, val: v}:
		return nil
	case <-s.quitChan:
		return fmt.Errorf("store closed")
	}
}

func (s *MemStore[K, V]) Get(k K) (V, error) {
	var empty V
	if s.closed() {
		return empty, fmt.Errorf("store closed")
	}
	respCh := make(chan *lookupResult[V], 1)
	req := &getRequest[K, V]{
		key:      k,
		response: respCh,
	}
	select {
	case s.readChan <- req:
	case <-s.quitChan:
		return empty, fmt.Errorf("store closed")
	}
	resp := <-respCh
	if !resp.exists {
		return resp.val, fmt.Errorf("key %v does not exist in store", k)
	}
	return resp.val, nil
}

// Close stops the access goroutine. Put and Get fail afterwards. Closing
// twice is a no-op.
func (s *MemStore[K, V]) Close() {
	s.quitOnce.Do(func() {
		close(s.quitChan)
	})
}
