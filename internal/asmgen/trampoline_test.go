package asmgen

import (
	"strings"
	"testing"

	"github.com/jetsetilly/cortexdl/test"
)

// TestWrapNameMatchesKnownOracleHashes cross-checks WrapName against the
// first 8 hex characters of MD5("test") and MD5("adc"), two commonly used
// trampoline labels.
func TestWrapNameMatchesKnownOracleHashes(t *testing.T) {
	test.Equate(t, WrapName("test"), "__098f6bcd__test")
	test.Equate(t, WrapName("adc"), "__225e8a3f__adc")
}

func TestWrapNameIsDeterministic(t *testing.T) {
	test.Equate(t, WrapName("module"), WrapName("module"))
}

func TestWrapNameDistinguishesDifferentInputs(t *testing.T) {
	if WrapName("a") == WrapName("b") {
		t.Fatalf("distinct names must not collide to the same wrapped label")
	}
}

// TestGenerateTrampolinesEmitsOneBlockPerFunction covers B2: one prologue
// block per exported function plus exactly one shared tail block per
// module, each referencing the module-wrapped label as its shared landing
// point.
func TestGenerateTrampolinesEmitsOneBlockPerFunction(t *testing.T) {
	src := GenerateTrampolines("mymodule", []string{"adc", "sbc"})

	moduleLabel := WrapName("mymodule")
	adcLabel := WrapName("adc")
	sbcLabel := WrapName("sbc")

	for _, want := range []string{
		".syntax unified",
		".thumb_func",
		adcLabel + ":",
		sbcLabel + ":",
		moduleLabel + ":",
		"b       " + moduleLabel,
		"blx     r11",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated assembly missing expected fragment %q\n%s", want, src)
		}
	}

	if strings.Count(src, ".thumb_func") != 3 {
		t.Fatalf("expected 3 .thumb_func blocks (2 functions + 1 shared tail), got %d", strings.Count(src, ".thumb_func"))
	}
}

func TestGenerateTrampolinesWithNoFunctionsStillEmitsTail(t *testing.T) {
	src := GenerateTrampolines("empty", nil)

	moduleLabel := WrapName("empty")
	if !strings.Contains(src, moduleLabel+":") {
		t.Fatalf("a module with zero exported functions must still emit its shared tail block")
	}
	if strings.Count(src, ".thumb_func") != 1 {
		t.Fatalf("expected exactly 1 .thumb_func block (the tail), got %d", strings.Count(src, ".thumb_func"))
	}
}
