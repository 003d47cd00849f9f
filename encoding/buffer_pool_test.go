package encoding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPoolReuses(t *testing.T) {
	pool := newBufferPool(1)
	buf := pool.get()
	buf.WriteString("a.b 1 2 \n")
	pool.put(buf)

	again := pool.get()
	assert.Same(t, buf, again)
	assert.Equal(t, 0, again.Len())
}

func TestBufferPoolDropsLargeAndOverflow(t *testing.T) {
	pool := newBufferPool(1)

	large := bytes.NewBuffer(make([]byte, 0, maxPooledLine+1))
	pool.put(large)
	assert.Len(t, pool, 0)

	first, second := pool.get(), pool.get()
	pool.put(first)
	pool.put(second)
	assert.Len(t, pool, 1)
	assert.Same(t, first, pool.get())
}
