package idhash

import "testing"

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name        string
		sessionID   string
		symbol      string
		entryTimeMs int64
		sequence    int64
	}{
		{
			name:        "long BTC trade",
			sessionID:   "sess-abc",
			symbol:      "BTCUSDT",
			entryTimeMs: 1700000000000,
			sequence:    1,
		},
		{
			name:        "empty session id",
			sessionID:   "",
			symbol:      "ETHUSDT",
			entryTimeMs: 0,
			sequence:    42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.sessionID, tt.symbol, tt.entryTimeMs, tt.sequence)

			if len(got) != 64 {
				t.Errorf("ComputeTradeID() length = %d, want 64", len(got))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.sessionID, tt.symbol, tt.entryTimeMs, tt.sequence)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputsDifferentIDs(t *testing.T) {
	base := ComputeTradeID("sess1", "BTCUSDT", 1000, 1)

	variants := []string{
		ComputeTradeID("sess2", "BTCUSDT", 1000, 1),
		ComputeTradeID("sess1", "ETHUSDT", 1000, 1),
		ComputeTradeID("sess1", "BTCUSDT", 1001, 1),
		ComputeTradeID("sess1", "BTCUSDT", 1000, 2),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("Variant %d collided with base ID", i)
		}
	}
}

func TestComputeReportID(t *testing.T) {
	got := ComputeReportID("sess1", 3, 1700000000000)
	if len(got) != 64 {
		t.Errorf("ComputeReportID() length = %d, want 64", len(got))
	}

	got2 := ComputeReportID("sess1", 3, 1700000000000)
	if got != got2 {
		t.Errorf("ComputeReportID() not deterministic")
	}

	other := ComputeReportID("sess1", 4, 1700000000000)
	if got == other {
		t.Errorf("Different report numbers produced the same ID")
	}
}
