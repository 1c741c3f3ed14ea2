package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferPool(t *testing.T) {
	bp := NewBufferPool(0)
	require.NotNil(t, bp)
	assert.Equal(t, CopyBufferSize, bp.Size())

	bp = NewBufferPool(4096)
	assert.Equal(t, 4096, bp.Size())
}

func TestBufferPool_GetPut(t *testing.T) {
	bp := NewBufferPool(4096)

	buf := bp.Get()
	require.NotNil(t, buf)
	assert.Equal(t, 4096, len(buf))
	assert.Equal(t, 4096, cap(buf))

	// Resliced buffers are restored to full length
	bp.Put(buf[:10])
	again := bp.Get()
	assert.Equal(t, 4096, len(again))
}

func TestBufferPool_PutForeignBuffer(t *testing.T) {
	bp := NewBufferPool(4096)

	// Should not panic and should not be handed out again
	bp.Put(make([]byte, 100))
	assert.Equal(t, 4096, len(bp.Get()))
}

func TestGlobalCopyBuffer(t *testing.T) {
	buf := GetCopyBuffer()
	assert.Equal(t, CopyBufferSize, len(buf))
	PutCopyBuffer(buf)
}

func TestBufferPool_Concurrent(t *testing.T) {
	bp := NewBufferPool(1024)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := bp.Get()
				buf[0] = byte(j)
				bp.Put(buf)
			}
		}()
	}

	wg.Wait()
}
