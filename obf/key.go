package obf

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// OffsetBasis seeds FNV1a. It is one digit shorter than the canonical
	// 64-bit FNV offset basis; keys derived by earlier builds depend on it.
	OffsetBasis uint64 = 1469598103934665603
	// Prime is the FNV-1a multiplier.
	Prime uint64 = 1099511628211

	saltMul uint64 = 0x9E3779B97F4A7C15
)

// Build metadata stamped by the linker:
//
//	go build -ldflags "-X github.com/AeonDave/svxor/obf.buildDate=$(date +%F)"
//
// Unset values fall back to the process start time and executable path.
var (
	buildDate   string
	buildTime   string
	buildSource string
)

var saltCounter atomic.Uint64

// FNV1a folds s into h one byte at a time, XOR then multiply.
func FNV1a(s string, h uint64) uint64 {
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= Prime
	}
	return h
}

// DeriveBuildKey hashes the concatenation date+clock+source.
func DeriveBuildKey(date, clock, source string) uint64 {
	return FNV1a(source, FNV1a(clock, FNV1a(date, OffsetBasis)))
}

// SaltFor spreads a call-site counter over the full 64-bit range.
func SaltFor(counter uint64) uint64 {
	return counter * saltMul
}

// InstanceKey combines the build key with a call-site salt.
func InstanceKey(buildKey, salt uint64) uint64 {
	return buildKey ^ salt
}

// BuildKey returns the process-wide key used by New. It is computed once.
//
// Without linker stamps the key only changes per process start, not per
// build; generated code does not use it and embeds its own build key.
var BuildKey = sync.OnceValue(func() uint64 {
	start := time.Now()
	date, clock, source := buildDate, buildTime, buildSource
	if date == "" {
		date = start.Format("Jan _2 2006")
	}
	if clock == "" {
		clock = start.Format("15:04:05")
	}
	if source == "" {
		source = os.Args[0]
	}
	return DeriveBuildKey(date, clock, source)
})

// nextKey hands out a fresh instance key for each runtime construction.
func nextKey() uint64 {
	return InstanceKey(BuildKey(), SaltFor(saltCounter.Add(1)))
}
