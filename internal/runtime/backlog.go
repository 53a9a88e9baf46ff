package runtime

import (
	"fmt"
	"time"

	"github.com/rzbill/flosweep/internal/eventlog"
	"github.com/rzbill/flosweep/internal/expiry"
	"github.com/rzbill/flosweep/internal/message"
)

const (
	backlogPage    = 256
	backlogMaxScan = 10000
)

// BacklogItem is one unacknowledged message.
type BacklogItem struct {
	Sequence    uint64            `json:"sequence"`
	PublishTime time.Time         `json:"publish_time"`
	Properties  map[string]string `json:"properties,omitempty"`
	Payload     []byte            `json:"payload"`
}

// Backlog returns up to limit messages after key's mark-delete position that
// match filter, oldest first. At most backlogMaxScan entries are examined.
func (r *Runtime) Backlog(key expiry.Key, limit int, filter message.Filter) ([]BacklogItem, error) {
	s, ok := r.Subscription(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubscription, key)
	}
	if limit <= 0 {
		limit = 100
	}
	l := s.Cursor.Log()
	start := eventlog.PositionFromSeq(s.Cursor.MarkDeletedPosition().Seq() + 1)
	out := make([]BacklogItem, 0, limit)
	scanned := 0
	for len(out) < limit && scanned < backlogMaxScan {
		items, next, err := l.Read(eventlog.ReadOptions{Start: start, Limit: backlogPage})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			scanned++
			if !filter.Match(it.Seq, it.Header, it.Payload) {
				continue
			}
			var bi BacklogItem
			if h, err := message.DecodeHeader(it.Header); err == nil {
				bi.PublishTime, bi.Properties = h.PublishTime, h.Properties
			}
			bi.Sequence, bi.Payload = it.Seq, it.Payload
			out = append(out, bi)
			if len(out) == limit {
				break
			}
		}
		if next.IsZero() {
			break
		}
		start = next
	}
	return out, nil
}
