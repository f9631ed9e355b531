package filters

import "testing"

func samplePlane() Plane {
	// 4 rows x 3 bytes/row, bpp 3 (e.g. one RGB pixel per row), no alpha.
	data := []byte{
		10, 20, 30,
		11, 19, 29,
		200, 1, 250,
		10, 20, 30,
	}
	return Plane{BPP: 3, ColorBytes: 3, Channels: 3, BytesPerRow: 3, Rows: 4, Data: data}
}

func unfilterPlaneRows(p Plane, filtered []byte) []byte {
	rowSize := p.BytesPerRow + 1
	out := make([]byte, 0, p.BytesPerRow*p.Rows)
	prev := make([]byte, p.BytesPerRow)
	var line []byte
	for i := 0; i < p.Rows; i++ {
		rf := RowFilter(filtered[i*rowSize])
		payload := filtered[i*rowSize+1 : (i+1)*rowSize]
		UnfilterLine(rf, p.BPP, payload, prev, &line)
		out = append(out, line...)
		prev = out[len(out)-p.BytesPerRow:]
	}
	return out
}

func TestFilterPlanesRoundTripsEveryStrategy(t *testing.T) {
	p := samplePlane()
	strategies := []FilterStrategy{
		StrategyNone, StrategySub, StrategyUp, StrategyAverage, StrategyPaeth,
		StrategyMinSum, StrategyEntropy, StrategyBigrams, StrategyBigEnt,
	}
	for _, strat := range strategies {
		out, used, err := FilterPlanes([]Plane{p}, strat, false, nil)
		if err != nil {
			t.Fatalf("%v: FilterPlanes error: %v", strat, err)
		}
		recovered := unfilterPlaneRows(p, out)
		if string(recovered) != string(p.Data) {
			t.Fatalf("%v: roundtrip mismatch: got %v, want %v", strat, recovered, p.Data)
		}
		if used.Kind != KindBasic && used.Kind != KindPredefined {
			t.Fatalf("%v: FilterUsed has unexpected kind %v", strat, used.Kind)
		}
	}
}

func TestFilterPlanesBruteUsesDeflateCallback(t *testing.T) {
	p := samplePlane()
	calls := 0
	fakeDeflate := func(data []byte, level int) ([]byte, error) {
		calls++
		return data, nil // identity "compression": smallest raw filtered bytes wins
	}
	out, used, err := FilterPlanes([]Plane{p}, BruteStrategy(p.Rows, 1), false, fakeDeflate)
	if err != nil {
		t.Fatalf("FilterPlanes: %v", err)
	}
	if calls == 0 {
		t.Fatal("expected the brute strategy to invoke its deflate callback")
	}
	recovered := unfilterPlaneRows(p, out)
	if string(recovered) != string(p.Data) {
		t.Fatalf("roundtrip mismatch: got %v, want %v", recovered, p.Data)
	}
	if used.Kind != KindPredefined {
		t.Fatalf("FilterUsed.Kind = %v, want KindPredefined", used.Kind)
	}
}
