package bufpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewPreallocates(t *testing.T) {
	p := New(4, 16)
	if p.Idle() != 4 {
		t.Fatalf("expected 4 idle buffers, got %d", p.Idle())
	}
	if p.Size() != 4 {
		t.Fatalf("expected size 4, got %d", p.Size())
	}

	for i := 0; i < 4; i++ {
		b, ok := p.Acquire()
		if !ok {
			t.Fatalf("acquire %d failed with %d buffers expected", i, 4)
		}
		if b.Cap() != 16 {
			t.Errorf("buffer %d: expected cap 16, got %d", i, b.Cap())
		}
	}
}

func TestAcquireExhaustedDoesNotBlock(t *testing.T) {
	p := New(2, 8)
	a, _ := p.Acquire()
	b, _ := p.Acquire()

	if _, ok := p.Acquire(); ok {
		t.Fatal("acquire succeeded on an exhausted pool")
	}
	if p.Idle() != 0 {
		t.Errorf("expected 0 idle, got %d", p.Idle())
	}

	p.Release(a)
	p.Release(b)
	if p.Idle() != 2 {
		t.Errorf("expected 2 idle after release, got %d", p.Idle())
	}
}

func TestReleaseResetsLength(t *testing.T) {
	p := New(1, 8)
	b, _ := p.Acquire()
	b.SetLen(5)
	if b.Len() != 5 || len(b.Bytes()) != 5 {
		t.Fatalf("expected len 5, got %d", b.Len())
	}
	p.Release(b)

	b2, _ := p.Acquire()
	if b2.Len() != 0 {
		t.Errorf("expected reacquired buffer length 0, got %d", b2.Len())
	}
}

func TestCrossGoroutineRelease(t *testing.T) {
	p := New(1, 8)
	b, ok := p.Acquire()
	if !ok {
		t.Fatal("acquire failed")
	}

	done := make(chan struct{})
	go func() {
		p.Release(b)
		close(done)
	}()
	<-done

	if _, ok := p.Acquire(); !ok {
		t.Fatal("buffer released from another goroutine not available")
	}
}

func TestBoundedness(t *testing.T) {
	const n = 4
	p := New(n, 8)

	var outstanding atomic.Int64
	var maxSeen atomic.Int64
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b, ok := p.Acquire()
				if !ok {
					continue
				}
				cur := outstanding.Add(1)
				for {
					prev := maxSeen.Load()
					if cur <= prev || maxSeen.CompareAndSwap(prev, cur) {
						break
					}
				}
				outstanding.Add(-1)
				p.Release(b)
			}
		}()
	}
	wg.Wait()

	if maxSeen.Load() > n {
		t.Errorf("checkout count exceeded pool size: max %d > %d", maxSeen.Load(), n)
	}
	if p.Idle() != n {
		t.Errorf("expected all %d buffers idle after run, got %d", n, p.Idle())
	}
}

func TestSetLenOutOfRangePanics(t *testing.T) {
	p := New(1, 8)
	b, _ := p.Acquire()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on SetLen beyond capacity")
		}
	}()
	b.SetLen(9)
}

func TestDoubleReleasePanics(t *testing.T) {
	p := New(1, 8)
	b, _ := p.Acquire()
	p.Release(b)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on release without matching acquire")
		}
	}()
	p.Release(b)
}
