package testutil

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedRunIDGenerator_InOrder(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-1", "run-2")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate(), "last ID repeats once exhausted")
}

func TestFixedRunIDGenerator_Default(t *testing.T) {
	gen := NewFixedRunIDGenerator()
	assert.Equal(t, "test-run-default", gen.Generate())
}

func TestFixedRunIDGenerator_Concurrent(t *testing.T) {
	gen := NewFixedRunIDGenerator("a", "b", "c")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Contains(t, []string{"a", "b", "c"}, gen.Generate())
		}()
	}
	wg.Wait()
	assert.Equal(t, "c", gen.Generate())
}

func TestFixedClock(t *testing.T) {
	now := FixedClock(Epoch)
	assert.Equal(t, Epoch, now())
	assert.Equal(t, now(), now())
}

func TestWriteSource(t *testing.T) {
	path := WriteSource(t, "a|b|c|2017-01-01|1.00|1:00")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, []string{SourceHeader, "a|b|c|2017-01-01|1.00|1:00"}, lines)
}
