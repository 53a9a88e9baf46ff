package expiry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadKey is returned by ParseKey for malformed subscription keys.
var ErrBadKey = errors.New("expiry: subscription key must be namespace/topic/partition/name")

// Key identifies one subscription on one topic partition.
type Key struct {
	Namespace    string
	Topic        string
	Partition    uint32
	Subscription string
}

// String renders the key as namespace/topic/partition/name.
func (k Key) String() string {
	return k.Namespace + "/" + k.Topic + "/" + strconv.FormatUint(uint64(k.Partition), 10) + "/" + k.Subscription
}

// ParseKey parses the String form of a Key.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 || parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrBadKey, s)
	}
	p, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Key{}, fmt.Errorf("%w: partition %q", ErrBadKey, parts[2])
	}
	return Key{Namespace: parts[0], Topic: parts[1], Partition: uint32(p), Subscription: parts[3]}, nil
}
