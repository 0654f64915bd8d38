package vhttpd

import (
	"bytes"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestPoolSingleWorkerRunsInOrder(t *testing.T) {
	pool := NewPool(1, nil)

	var order []int
	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			order = append(order, i)
		})
	}
	pool.Close()

	expected := make([]int, 50)
	for i := range expected {
		expected[i] = i
	}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("Jobs ran out of order: %v", order)
	}
}

func TestPoolRunsAllJobs(t *testing.T) {
	pool := NewPool(8, nil)

	var count atomic.Int64
	for i := 0; i < 1000; i++ {
		pool.Submit(func() {
			count.Add(1)
		})
	}
	pool.Close()

	if count.Load() != 1000 {
		t.Errorf("Expected 1000 jobs, got %d", count.Load())
	}

	// closing twice is fine
	pool.Close()
}

func TestPoolSurvivesPanic(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	pool := NewPool(1, &l)
	ran := false
	pool.Submit(func() {
		panic("boom")
	})
	pool.Submit(func() {
		ran = true
	})
	pool.Close()

	if !ran {
		t.Error("Worker should keep running after a panic")
	}

	out := buf.String()
	if !strings.Contains(out, `"panic_summary":"boom"`) || !strings.Contains(out, "stack_array") {
		t.Errorf("Expected the panic to be logged, got %s", out)
	}
}
