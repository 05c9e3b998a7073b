package mission

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^[a-z]{3}-\d{4}-[0-9a-f]{8}$`)

func TestNewID_Format(t *testing.T) {
	for typ, prefix := range typePrefixes {
		id, err := NewID(typ)
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		assert.Equal(t, prefix, id[:3])
	}
}

func TestNewID_UnknownType(t *testing.T) {
	_, err := NewID(Type("ESPIONAGE"))
	assert.Error(t, err)
}

func TestNewID_ConcurrentUniqueness(t *testing.T) {
	const n = 200
	ids := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := NewID(TypeDevelopment)
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
