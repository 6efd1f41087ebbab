package region

import "testing"

// TestEstimate は代表的な地点の県判定を検証する。
func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"ベルゲン", 60.40, 5.32, "Vestland"},
		{"トロムソ", 69.65, 18.96, "Troms og Finnmark"},
		{"ボードー", 67.28, 14.40, "Nordland"},
		{"トロンハイム", 63.43, 10.40, "Trøndelag"},
		{"スタヴァンゲル", 58.97, 5.73, "Rogaland"},
		{"クリスチャンサン", 58.15, 8.00, "Agder"},
		{"オスロ", 59.91, 10.75, "Viken"},
		{"リレハンメル", 61.11, 10.47, "Innlandet"},
		{"シーエン", 59.21, 9.61, "Vestfold og Telemark"},
		{"どの判定にも該当しない国内地点", 62.0, 13.0, Unknown},
		{"国外の地点", 48.85, 2.35, Unknown},
		{"境界上の値は開区間で扱う", 65.0, 12.0, "Trøndelag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Estimate(%v, %v) = %q, want %q", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

// TestEstimate_Deterministic は同じ座標に対して常に同じ結果を返すことを検証する。
func TestEstimate_Deterministic(t *testing.T) {
	first := Estimate(60.40, 5.32)
	for i := 0; i < 100; i++ {
		if got := Estimate(60.40, 5.32); got != first {
			t.Fatalf("call %d: Estimate = %q, want %q", i, got, first)
		}
	}
}

// TestNames は判定順序が先勝ちの優先順位と一致することを検証する。
func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 9 {
		t.Fatalf("expected 9 regions, got %d", len(names))
	}
	if names[0] != "Troms og Finnmark" || names[len(names)-1] != "Vestfold og Telemark" {
		t.Errorf("unexpected order: %v", names)
	}
}
