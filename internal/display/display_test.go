package display_test

import (
	"testing"

	"github.com/shimomut/tfm-sub010/internal/display"
)

func TestWidthCachesNFDAndNFCEquivalently(t *testing.T) {
	c := display.NewCache()
	combiningAcute := "́"
	nfd := "e" + combiningAcute + "cole.txt"
	nfc := display.Normalize(nfd)
	if nfc == nfd {
		t.Fatal("setup: expected the NFD form to differ from its NFC normalization")
	}
	if c.Width(nfc) != c.Width(nfd) {
		t.Fatalf("Width(NFC)=%d, Width(NFD)=%d, want equal after normalization", c.Width(nfc), c.Width(nfd))
	}
}

func TestWidthCountsWideCharactersAsTwoColumns(t *testing.T) {
	c := display.NewCache()
	wide := string([]rune{0x65E5, 0x672C, 0x8A9E}) // three CJK ideographs
	if w := c.Width(wide); w != 6 {
		t.Fatalf("Width(wide) = %d, want 6", w)
	}
}

func TestTruncateShortensAndStaysWithinBudget(t *testing.T) {
	got := display.Truncate("a_very_long_filename.txt", 10)
	c := display.NewCache()
	if c.Width(got) > 10 {
		t.Fatalf("Truncate result %q exceeds 10 columns (width %d)", got, c.Width(got))
	}
	if got == "a_very_long_filename.txt" {
		t.Fatal("expected truncation to shorten the string")
	}
}

func TestIsSingleScalarRejectsDecomposedForm(t *testing.T) {
	precomposed := string(rune(0x00E9)) // é, NFC
	if !display.IsSingleScalar(precomposed) {
		t.Fatal("precomposed e-acute should be a single scalar")
	}
	decomposed := "e" + "́"
	if display.IsSingleScalar(decomposed) {
		t.Fatal("decomposed e+combining-acute must not be accepted as a single scalar")
	}
}
