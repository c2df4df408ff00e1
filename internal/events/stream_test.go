package events

import (
	"bytes"
	"io"
	"testing"

	"github.com/ir2-lab/OpenTRIM-sub000/internal/geom"
	"github.com/ir2-lab/OpenTRIM-sub000/internal/ion"
)

func TestStreamWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf, ExitCols)

	i := &ion.State{}
	i.Reset()
	i.IonID = 7
	i.Atom = ion.Species{ID: 2}
	i.PrevCellID = 3
	i.Erg = 1234.5
	i.Pos = geom.Vec3{X: 1, Y: 2, Z: 3}
	i.Dir = geom.Vec3{X: 0, Y: 0, Z: 1}

	row := NewExitRow(i)
	if err := s.Write(row[:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Rows() != 1 {
		t.Errorf("Rows() = %d, want 1", s.Rows())
	}

	r := NewReader(bytes.NewReader(buf.Bytes()), ExitCols)
	got, err := r.ReadRow()
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	for k := range row {
		if got[k] != row[k] {
			t.Errorf("col %d: got %v, want %v", k, got[k], row[k])
		}
	}
	if _, err := r.ReadRow(); err != io.EOF {
		t.Errorf("second ReadRow error = %v, want io.EOF", err)
	}
}

func TestStreamWriteRejectsWrongWidth(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf, ExitCols)
	if err := s.Write(make([]float32, ExitCols-1)); err == nil {
		t.Error("Write with wrong row width did not error")
	}
}

func TestMergeAppendsAllRows(t *testing.T) {
	var srcBuf bytes.Buffer
	src := NewWriter(&srcBuf, DamageCols)
	rows := []DamageRow{
		NewDamageRow(1, 1, 2, DefectIDVacancy, geom.Vec3{X: 1}),
		NewDamageRow(1, 1, 2, DefectIDInterstitial, geom.Vec3{X: 2}),
	}
	for _, r := range rows {
		if err := src.Write(r[:]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	src.Flush()

	var dstBuf bytes.Buffer
	dst := NewWriter(&dstBuf, DamageCols)
	if err := Merge(dst, NewReader(bytes.NewReader(srcBuf.Bytes()), DamageCols)); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	dst.Flush()
	if dst.Rows() != uint64(len(rows)) {
		t.Errorf("merged Rows() = %d, want %d", dst.Rows(), len(rows))
	}
}

func TestPKABufferAccumulates(t *testing.T) {
	b := NewPKABuffer(3)
	i := &ion.State{}
	i.Reset()
	i.IonID = 11
	i.Atom = ion.Species{ID: 0}
	i.Erg0 = 5000

	b.Init(i)
	b.AddTdam(1200)
	b.AddVacancy(1)
	b.AddVacancy(1)
	b.AddInterstitial(2)
	b.AddRecombination(1)
	b.AddCorrelatedRecombination(1)

	if b.IonID() != 11 {
		t.Errorf("IonID() = %d, want 11", b.IonID())
	}
	if b.RecoilEnergy() != 5000 {
		t.Errorf("RecoilEnergy() = %v, want 5000", b.RecoilEnergy())
	}
	if b.Tdam() != 1200 {
		t.Errorf("Tdam() = %v, want 1200", b.Tdam())
	}
	if got := b.row[b.atomOffset(0, 1)]; got != 2 {
		t.Errorf("vacancy count at atom 1 = %v, want 2", got)
	}
	if got := b.row[b.atomOffset(1, 2)]; got != 1 {
		t.Errorf("interstitial count at atom 2 = %v, want 1", got)
	}

	if len(b.Row()) != pkaVacBase+pkaAtomCols*3 {
		t.Errorf("Row() length = %d, want %d", len(b.Row()), pkaVacBase+pkaAtomCols*3)
	}
}
