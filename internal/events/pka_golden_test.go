package events

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
)

// dumpPKARow renders a PKABuffer row as one line of "name=value" fields, the
// same shape a collaborator's golden-file serializer would emit: stable
// field order, fixed precision, independent of the backing []float32 layout.
func dumpPKARow(b *PKABuffer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ion=%d atom=%d erg=%.1f tdam=%.1f", b.IonID(), b.AtomID(), b.RecoilEnergy(), b.Tdam())
	for a := 0; a < b.nAtoms; a++ {
		fmt.Fprintf(&sb, " vac[%d]=%.0f impl[%d]=%.0f", a, b.row[b.atomOffset(0, a)], a, b.row[b.atomOffset(1, a)])
	}
	return sb.String()
}

// TestPKABufferGoldenDump pins the textual rendering of a fixed PKA cascade
// against a golden transcript, diffed line-by-line so a regression in any
// single field reads as a small, localized diff instead of a single
// all-or-nothing string comparison.
func TestPKABufferGoldenDump(t *testing.T) {
	const nAtoms = 3
	b := NewPKABuffer(nAtoms)

	i := &ion.State{}
	i.Reset()
	i.IonID = 42
	i.Atom = ion.Species{ID: 1}
	i.Erg0 = 8000

	b.Init(i)
	b.AddTdam(3400)
	b.AddVacancy(1)
	b.AddVacancy(1)
	b.AddVacancy(2)
	b.AddInterstitial(1)
	b.AddRecombination(1)
	b.AddCorrelatedRecombination(1)

	got := dumpPKARow(b) + "\n"
	want := "ion=42 atom=1 erg=8000.0 tdam=3400.0 vac[0]=0 impl[0]=0 vac[1]=2 impl[1]=1 vac[2]=1 impl[2]=0\n"

	if got == want {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "golden",
		ToFile:   "got",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		t.Fatalf("GetUnifiedDiffString: %v", err)
	}
	t.Fatalf("PKA row dump mismatch:\n%s", text)
}
