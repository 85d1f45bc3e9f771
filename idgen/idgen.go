// Package idgen produces the identifiers used across the service:
// scrape job ids and per-request correlation ids. The strategy is
// injected as a Generator so tests can pin ids.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings,
// time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// NanoID returns a Generator producing short base-36 ids. Used where a
// full UUID is too verbose, e.g. per-request log correlation.
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		for i, b := range buf {
			buf[i] = alphabet[int(b)%len(alphabet)]
		}
		return string(buf)
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every id,
// scoping ids by type ("job_", "req_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// ScrapeJob produces ids for scrape jobs. UUIDv7 keeps them
// time-sortable, so job logs interleave in start order.
var ScrapeJob Generator = Prefixed("job_", UUIDv7())

// Request produces ids for ops and generation requests.
var Request Generator = Prefixed("req_", NanoID(12))
