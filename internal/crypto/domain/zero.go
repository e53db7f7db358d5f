package domain

import "runtime"

// Zero overwrites b in place. Call it on every plaintext key buffer once it is no longer needed.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
