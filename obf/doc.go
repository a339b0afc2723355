// Package obf holds string literals in an obfuscated form and decodes them on
// demand.
//
// A literal is sealed ahead of time by XORing every byte against a keystream
// derived from a 64-bit instance key. The svxor generator performs the sealing
// at build time and emits accessors that call Sealed, so the plaintext never
// appears in the compiled binary. At run time a *String starts locked; Unlock
// decodes it in place and Lock re-encodes it. Both operations are idempotent
// and never move the backing buffer, so a slice obtained from Unlock keeps
// pointing at the same bytes across lock/unlock cycles.
//
// The keystream is a fast non-cryptographic mixer. It defeats string scanning
// and diffing between builds; it does not protect against anyone who can read
// process memory while a String is unlocked.
//
// A String is not safe for concurrent use. Guard it externally if more than
// one goroutine needs the same instance.
package obf
