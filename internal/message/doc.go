// Package message defines the header layout stored with every log record
// and the helpers that read it: age checks for expiry and CEL filters for
// backlog inspection.
//
// A header is an 8-byte big-endian publish time in Unix milliseconds,
// optionally followed by a JSON object of string properties.
package message
