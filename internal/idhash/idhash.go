package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(session_id|symbol|entry_time_ms|sequence)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(sessionID, symbol string, entryTimeMs, sequence int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", sessionID, symbol, entryTimeMs, sequence)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeReportID computes a deterministic report_id using SHA256.
// Formula: SHA256(session_id|report_number|generated_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeReportID(sessionID string, reportNumber int, generatedAtMs int64) string {
	data := fmt.Sprintf("%s|%d|%d", sessionID, reportNumber, generatedAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
