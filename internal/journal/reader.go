package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/opsdeck/missiond/pkg/storage"
)

// Reader reads entries back from a channel's NDJSON sink.
type Reader struct {
	store storage.Storage
}

func NewReader(store storage.Storage) *Reader {
	return &Reader{store: store}
}

// Read returns all entries in the channel, oldest first. A channel that
// was never written to reads as empty.
func (r *Reader) Read(ctx context.Context, ch Channel) ([]*Entry, error) {
	data, err := r.store.Read(ctx, channelPath(ch))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []*Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, scanner.Err()
}
