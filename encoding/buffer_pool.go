package encoding

import "bytes"

// maxPooledLine is the largest buffer kept for reuse.
const maxPooledLine = 4096

var sharedBufferPool = newBufferPool(128)

// bufferPool recycles line buffers. Buffers put back while the pool is full are dropped.
type bufferPool chan *bytes.Buffer

func newBufferPool(size int) bufferPool {
	return make(chan *bytes.Buffer, size)
}

func (b bufferPool) get() *bytes.Buffer {
	select {
	case buf := <-b:
		return buf
	default:
		return bytes.NewBuffer(make([]byte, 0, 128))
	}
}

func (b bufferPool) put(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledLine {
		return
	}
	buf.Reset()
	select {
	case b <- buf:
	default:
	}
}
