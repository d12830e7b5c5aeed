// ABOUTME: gateway.Gateway implementation over the Charm/Badger key-value store.
// ABOUTME: Handles filters, ordering, and cascade deletes in Go since KV has no query layer.
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/lift/internal/gateway"
)

var _ gateway.Gateway = (*Client)(nil)

// entry is the stored value: the record plus its insertion sequence.
type entry struct {
	Seq    int64          `json:"seq"`
	Record gateway.Record `json:"record"`
}

var lastSeq atomic.Int64

// nextSeq is a wall-clock sequence that never repeats within a process.
func nextSeq() int64 {
	for {
		now := time.Now().UnixNano()
		prev := lastSeq.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastSeq.CompareAndSwap(prev, now) {
			return now
		}
	}
}

func recordKey(c gateway.Collection, id string) string {
	return string(c) + ":" + id
}

// Create stores payload under a new key, generating an id when absent.
func (c *Client) Create(ctx context.Context, coll gateway.Collection, payload gateway.Record) (gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := payload.Clone()
	if rec.ID() == "" {
		rec["id"] = uuid.NewString()
	}
	key := recordKey(coll, rec.ID())
	if _, ok, err := c.get(key); err != nil {
		return nil, fmt.Errorf("create %s: %w", coll, err)
	} else if ok {
		return nil, fmt.Errorf("create %s: duplicate key %s", coll, rec.ID())
	}

	if err := c.put(key, entry{Seq: nextSeq(), Record: rec}); err != nil {
		return nil, fmt.Errorf("create %s: %w", coll, err)
	}
	c.syncIfEnabled()
	return rec.Clone(), nil
}

// Read returns matching records in insertion order, then ordered by order.
func (c *Client) Read(ctx context.Context, coll gateway.Collection, filters []gateway.Filter, order *gateway.Order) ([]gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	entries, err := c.entries(coll)
	c.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", coll, err)
	}

	var out []gateway.Record
	for _, e := range entries {
		if gateway.MatchAll(filters, e.Record) {
			out = append(out, e.Record)
		}
	}
	gateway.SortRecords(out, order)
	return out, nil
}

// Update merges patch into the stored record.
func (c *Client) Update(ctx context.Context, coll gateway.Collection, id string, patch gateway.Record) (gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := recordKey(coll, id)
	e, ok, err := c.load(key)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", coll, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", coll, id, gateway.ErrNotFound)
	}
	e.Record = e.Record.Merge(patch)
	e.Record["id"] = id
	if err := c.put(key, e); err != nil {
		return nil, fmt.Errorf("update %s: %w", coll, err)
	}
	c.syncIfEnabled()
	return e.Record.Clone(), nil
}

// Delete removes the record and, by hand, every cascade child.
func (c *Client) Delete(ctx context.Context, coll gateway.Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok, err := c.get(recordKey(coll, id)); err != nil {
		return fmt.Errorf("delete %s: %w", coll, err)
	} else if !ok {
		return fmt.Errorf("%s %s: %w", coll, id, gateway.ErrNotFound)
	}
	if err := c.cascade(coll, id); err != nil {
		return fmt.Errorf("delete %s: %w", coll, err)
	}
	c.syncIfEnabled()
	return nil
}

// cascade deletes children first so an interrupted delete leaves no orphans.
func (c *Client) cascade(coll gateway.Collection, id string) error {
	for _, child := range gateway.CascadeChildren(coll) {
		entries, err := c.entries(child.Collection)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Record.String(child.ParentKey) == id {
				if err := c.cascade(child.Collection, e.Record.ID()); err != nil {
					return err
				}
			}
		}
	}
	return c.delete(recordKey(coll, id))
}

// entries decodes every record of coll sorted by insertion. Callers hold c.mu.
func (c *Client) entries(coll gateway.Collection) ([]entry, error) {
	prefix := string(coll) + ":"
	raw, err := c.listByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]entry, 0, len(raw))
	for _, data := range raw {
		e, err := decodeEntry(data)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return strings.Compare(out[i].Record.ID(), out[j].Record.ID()) < 0
	})
	return out, nil
}

func (c *Client) load(key string) (entry, bool, error) {
	data, ok, err := c.get(key)
	if err != nil || !ok {
		return entry{}, ok, err
	}
	e, err := decodeEntry(data)
	if err != nil {
		return entry{}, false, err
	}
	return e, true, nil
}

func (c *Client) put(key string, e entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return c.set(key, data)
}

func decodeEntry(data []byte) (entry, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, fmt.Errorf("unmarshal record: %w", err)
	}
	if e.Record == nil {
		return entry{}, fmt.Errorf("unmarshal record: empty")
	}
	return e, nil
}
