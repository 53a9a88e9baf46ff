package message

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/flosweep/internal/eventlog"
)

var (
	// ErrShortHeader is returned for headers shorter than the 8-byte timestamp.
	ErrShortHeader = errors.New("message: header shorter than 8 bytes")
	// ErrBadProperties is returned when the properties tail is not a JSON object.
	ErrBadProperties = errors.New("message: malformed header properties")
)

// headerTimeLen is the size of the publish timestamp prefix.
const headerTimeLen = 8

// Header is a decoded record header.
type Header struct {
	PublishTime time.Time
	Properties  map[string]string
}

// PublishMs returns the publish time in Unix milliseconds.
func (h Header) PublishMs() int64 { return h.PublishTime.UnixMilli() }

// EncodeHeader builds a header for a message published at t.
func EncodeHeader(t time.Time, props map[string]string) ([]byte, error) {
	buf := make([]byte, headerTimeLen, headerTimeLen+64)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixMilli()))
	if len(props) > 0 {
		pb, err := json.Marshal(props)
		if err != nil {
			return nil, fmt.Errorf("message: encode properties: %w", err)
		}
		buf = append(buf, pb...)
	}
	return buf, nil
}

// DecodeHeader parses a header produced by EncodeHeader.
func DecodeHeader(b []byte) (Header, error) {
	ms, err := publishMs(b)
	if err != nil {
		return Header{}, err
	}
	h := Header{PublishTime: time.UnixMilli(ms)}
	if len(b) > headerTimeLen {
		if err := json.Unmarshal(b[headerTimeLen:], &h.Properties); err != nil {
			return Header{}, fmt.Errorf("%w: %v", ErrBadProperties, err)
		}
	}
	return h, nil
}

func publishMs(b []byte) (int64, error) {
	if len(b) < headerTimeLen {
		return 0, ErrShortHeader
	}
	return int64(binary.BigEndian.Uint64(b[:headerTimeLen])), nil
}

// now is replaced in tests.
var now = time.Now

// EntryExpired reports whether e was published more than ttlSeconds ago.
// It does not release e.
func EntryExpired(e *eventlog.Entry, ttlSeconds int) (bool, error) {
	return EntryExpiredAt(e, ttlSeconds, now())
}

// EntryExpiredAt is EntryExpired evaluated at the given instant. An entry is
// expired when its age is strictly greater than the TTL.
func EntryExpiredAt(e *eventlog.Entry, ttlSeconds int, at time.Time) (bool, error) {
	if err := e.Err(); err != nil {
		return false, err
	}
	ms, err := publishMs(e.Header())
	if err != nil {
		return false, err
	}
	age := at.UnixMilli() - ms
	return age > int64(ttlSeconds)*1000, nil
}
