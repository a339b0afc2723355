package obf

import "runtime"

// Once decodes s and hands its buffer over to the caller. s is spent
// afterwards: its finalizer is disarmed, the key and keystream are wiped,
// and Unlock, Lock and Destroy no longer touch the returned bytes. The slice
// stays valid for as long as the caller holds it, and it is never zeroed.
// Typical use is a call argument:
//
//	fmt.Printf("%s\n", obf.Once(banner()))
//
// Use With when the plaintext must be wiped after use.
func Once(s *String) []byte {
	plain := s.Bytes()
	runtime.SetFinalizer(s, nil)
	wipe(s.ks)
	s.key = 0
	s.data, s.ks, s.n = nil, nil, 0
	s.locked = false
	s.wiped = true
	return plain
}

// OnceLiteral is Once over a String built by New.
func OnceLiteral(literal string, mode Mode) []byte {
	return Once(New(literal, mode))
}

// With unlocks s, passes the plaintext to fn and destroys s when fn returns.
// fn must not retain the slice.
func With(s *String, fn func(plain []byte)) {
	defer s.Destroy()
	fn(s.Bytes())
}
