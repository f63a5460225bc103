package kem

import (
	"github.com/cloudflare/circl/hpke"
	circlkem "github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/frodo/frodo640shake"
	"github.com/cloudflare/circl/kem/hybrid"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/kyber/kyber512"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem512"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/kem/sike/sikep434"
	"github.com/cloudflare/circl/kem/sike/sikep503"
	"github.com/cloudflare/circl/kem/sike/sikep751"
)

// LargeStackAlgorithms lists the algorithms that must not run on a freshly
// spawned worker. The list describes the backends' working set, not their
// availability, so it is kept apart from the enable flags.
//
// The threshold assumed is a 512 KiB secondary thread stack (macOS default)
// against an 8 MiB main thread stack.
var LargeStackAlgorithms = []string{
	"FrodoKEM-640-SHAKE",
}

func circlEntry(name string, s circlkem.Scheme, enabled bool) Entry {
	return Entry{
		Name:    name,
		Enabled: enabled,
		New: func() Scheme {
			return NewCirclScheme(name, s)
		},
	}
}

func catalogue() []Entry {
	entries := []Entry{
		circlEntry("Kyber512", kyber512.Scheme(), true),
		circlEntry("Kyber768", kyber768.Scheme(), true),
		circlEntry("Kyber1024", kyber1024.Scheme(), true),
		circlEntry("ML-KEM-512", mlkem512.Scheme(), true),
		circlEntry("ML-KEM-768", mlkem768.Scheme(), true),
		circlEntry("ML-KEM-1024", mlkem1024.Scheme(), true),
		circlEntry("FrodoKEM-640-SHAKE", frodo640shake.Scheme(), true),
		circlEntry("X25519-Kyber512", hybrid.Kyber512X25519(), true),
		circlEntry("X25519-Kyber768", hybrid.Kyber768X25519(), true),
		circlEntry("X448-Kyber768", hybrid.Kyber768X448(), true),
		circlEntry("X448-Kyber1024", hybrid.Kyber1024X448(), true),
		{Name: "P256-Kyber768", Enabled: true, New: func() Scheme {
			return NewRandomizedCirclScheme("P256-Kyber768", hybrid.P256Kyber768Draft00())
		}},
		circlEntry("X25519-MLKEM768", hybrid.X25519MLKEM768(), true),
		{Name: "X-Wing", Enabled: true, New: func() Scheme { return NewXWing() }},
		{Name: "sntrup4591761", Enabled: true, New: func() Scheme { return NewSntrup4591761() }},
		circlEntry("DHKEM-P256-HKDF-SHA256", hpke.KEM_P256_HKDF_SHA256.Scheme(), true),
		circlEntry("DHKEM-X25519-HKDF-SHA256", hpke.KEM_X25519_HKDF_SHA256.Scheme(), true),

		circlEntry("SIKE-p434", sikep434.Scheme(), sikeEnabled),
		circlEntry("SIKE-p503", sikep503.Scheme(), sikeEnabled),
		circlEntry("SIKE-p751", sikep751.Scheme(), sikeEnabled),
	}

	large := make(map[string]bool, len(LargeStackAlgorithms))
	for _, name := range LargeStackAlgorithms {
		large[name] = true
	}
	for i := range entries {
		if large[entries[i].Name] {
			entries[i].Hint = HintLargeStack
		}
	}
	return entries
}
