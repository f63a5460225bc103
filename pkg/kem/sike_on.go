//go:build sike

package kem

const sikeEnabled = true
