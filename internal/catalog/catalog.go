package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rzbill/flosweep/internal/expiry"
	pebblestore "github.com/rzbill/flosweep/internal/storage/pebble"
)

// Record is the durable description of a subscription added at runtime.
type Record struct {
	Key         string `json:"key"`
	TTLSeconds  int    `json:"ttlSeconds"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

var (
	recordPrefix = []byte("subcat/")
	// recordLimit is the exclusive upper bound of the record keyspace.
	recordLimit = []byte("subcat0")
)

func recordKey(k expiry.Key) []byte {
	s := k.String()
	b := make([]byte, 0, len(recordPrefix)+len(s))
	b = append(b, recordPrefix...)
	return append(b, s...)
}

// Ensure records key with ttlSeconds, returning the effective record.
// Idempotent: an existing record keeps its creation time and takes the new TTL.
func Ensure(db *pebblestore.DB, key expiry.Key, ttlSeconds int) (Record, error) {
	rk := recordKey(key)
	r := Record{Key: key.String(), TTLSeconds: ttlSeconds, CreatedAtMs: time.Now().UnixMilli()}
	if b, err := db.Get(rk); err == nil && len(b) > 0 {
		var old Record
		if err := json.Unmarshal(b, &old); err == nil {
			if old.TTLSeconds == ttlSeconds {
				return old, nil
			}
			r.CreatedAtMs = old.CreatedAtMs
		}
		// fallthrough to rewrite if corrupted
	} else if err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return Record{}, err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return Record{}, err
	}
	if err := db.Set(rk, b); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Remove deletes the record for key. Missing records are not an error.
func Remove(db *pebblestore.DB, key expiry.Key) error {
	return db.Delete(recordKey(key))
}

// List returns every record ordered by key. Records that fail to decode are
// skipped and reported in the returned error alongside the valid ones.
func List(db *pebblestore.DB) ([]Record, error) {
	it, err := db.NewIter(&pebble.IterOptions{LowerBound: recordPrefix, UpperBound: recordLimit})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var (
		out  []Record
		errs []error
	)
	for ok := it.First(); ok; ok = it.Next() {
		var r Record
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			errs = append(errs, fmt.Errorf("catalog: decode %q: %w", it.Key(), err))
			continue
		}
		out = append(out, r)
	}
	if err := it.Error(); err != nil {
		return out, err
	}
	return out, errors.Join(errs...)
}
