package transfer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const (
	// ChunkPrefix marks a chunk and the chunk format version.
	ChunkPrefix = "DVX1:"

	// DefaultChunkSize keeps a chunk within a medium-density QR code.
	DefaultChunkSize = 800
)

var (
	ErrInvalidChunk = errors.New("invalid transfer chunk")
	ErrIncomplete   = errors.New("transfer incomplete")
)

// Chunk is one positional slice of an encoded bundle.
type Chunk struct {
	Index int
	Total int
	Data  string
}

func (c Chunk) String() string {
	return fmt.Sprintf("%s%d:%d:%s", ChunkPrefix, c.Index, c.Total, c.Data)
}

// IsChunk reports whether s carries the chunk marker.
func IsChunk(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), ChunkPrefix)
}

// Split cuts encoded into chunks of at most size data bytes. size <= 0 uses
// DefaultChunkSize. There is always at least one chunk.
func Split(encoded string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	total := (len(encoded) + size - 1) / size
	if total == 0 {
		total = 1
	}

	chunks := make([]string, 0, total)
	for i := 0; i < total; i++ {
		end := min((i+1)*size, len(encoded))
		chunks = append(chunks, Chunk{Index: i, Total: total, Data: encoded[min(i*size, end):end]}.String())
	}
	return chunks
}

// ParseChunk parses a single chunk.
func ParseChunk(s string) (Chunk, error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, ChunkPrefix)
	if !ok {
		return Chunk{}, fmt.Errorf("%w: missing %q marker", ErrInvalidChunk, ChunkPrefix)
	}

	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return Chunk{}, fmt.Errorf("%w: expected index:total:data", ErrInvalidChunk)
	}

	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: bad index %q", ErrInvalidChunk, parts[0])
	}
	total, err := strconv.Atoi(parts[1])
	if err != nil {
		return Chunk{}, fmt.Errorf("%w: bad total %q", ErrInvalidChunk, parts[1])
	}
	if total < 1 || index < 0 || index >= total {
		return Chunk{}, fmt.Errorf("%w: index %d out of range for total %d", ErrInvalidChunk, index, total)
	}

	return Chunk{Index: index, Total: total, Data: parts[2]}, nil
}

// Assembler accumulates chunks of one transfer. It is safe for concurrent use.
type Assembler struct {
	mu    sync.Mutex
	total int
	parts map[int]string
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{parts: make(map[int]string)}
}

// Add records chunk and reports whether its index was new. The first chunk
// fixes the total; a chunk announcing another total is rejected and changes
// nothing. Repeats of a known index are ignored.
func (a *Assembler) Add(chunk string) (bool, error) {
	c, err := ParseChunk(chunk)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.total == 0 {
		a.total = c.Total
	} else if c.Total != a.total {
		return false, fmt.Errorf("%w: total %d does not match %d", ErrInvalidChunk, c.Total, a.total)
	}

	if _, seen := a.parts[c.Index]; seen {
		return false, nil
	}
	a.parts[c.Index] = c.Data
	return true, nil
}

// IsComplete reports whether every index has been seen.
func (a *Assembler) IsComplete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.total > 0 && len(a.parts) == a.total
}

// Progress returns how many distinct chunks were seen and the expected total,
// which is 0 before the first chunk.
func (a *Assembler) Progress() (seen, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.parts), a.total
}

// Assemble concatenates the chunks by index.
func (a *Assembler) Assemble() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.total == 0 || len(a.parts) != a.total {
		return "", fmt.Errorf("%w: %d of %d chunks", ErrIncomplete, len(a.parts), a.total)
	}

	var sb strings.Builder
	for i := 0; i < a.total; i++ {
		sb.WriteString(a.parts[i])
	}
	return sb.String(), nil
}

// Reset forgets every chunk.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total = 0
	a.parts = make(map[int]string)
}
