package filelock

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "data.json")

	if err := AtomicWrite(path, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("content = %s, want {\"v\":1}", data)
	}

	// Overwrite leaves only the new content.
	if err := AtomicWrite(path, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("AtomicWrite() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != `{"v":2}` {
		t.Errorf("content after overwrite = %s, want {\"v\":2}", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in dir: %d entries", len(entries))
	}
}

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	first := New(path)
	acquired, err := first.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if !acquired {
		t.Fatal("first TryLock() should acquire")
	}
	defer first.Unlock()
}

func TestWithLockSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter")

	// Each goroutine does a read-modify-write of the counter file under
	// the lock. Lost updates would leave the final value below 20.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				n := 0
				if data, err := os.ReadFile(path); err == nil {
					n, _ = strconv.Atoi(string(data))
				}
				return os.WriteFile(path, []byte(strconv.Itoa(n+1)), 0o644)
			})
			if err != nil {
				t.Errorf("WithLock() error = %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if string(data) != "20" {
		t.Errorf("counter = %s, want 20", data)
	}
}
