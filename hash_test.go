package nodecache

import "testing"

func TestHashStringDeterministic(t *testing.T) {
	if HashString("alpha") != HashString("alpha") {
		t.Error("HashString should be deterministic for the same input")
	}
	if HashString("alpha") == HashString("beta") {
		t.Error("HashString should (overwhelmingly likely) differ for different inputs")
	}
}

func TestHashInt64Deterministic(t *testing.T) {
	if HashInt64(42) != HashInt64(42) {
		t.Error("HashInt64 should be deterministic for the same input")
	}
	if HashInt64(42) == HashInt64(43) {
		t.Error("HashInt64 should (overwhelmingly likely) differ for different inputs")
	}
}

func TestHashInt64Negative(t *testing.T) {
	// Negative keys must hash without panicking and remain deterministic.
	a := HashInt64(-1)
	b := HashInt64(-1)
	if a != b {
		t.Error("HashInt64 should be deterministic for negative inputs")
	}
}
