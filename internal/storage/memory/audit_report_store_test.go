package memory

import (
	"context"
	"errors"
	"testing"

	"scalp-engine/internal/domain"
	"scalp-engine/internal/storage"
)

func TestAuditReportStore_InsertAndGet(t *testing.T) {
	store := NewAuditReportStore()
	ctx := context.Background()

	report := &domain.AuditReport{
		ReportID:     "rep1",
		SessionID:    "sess1",
		ReportNumber: 1,
		SpeedMode:    domain.SpeedModeNormal,
		InvariantResults: []domain.InvariantResult{
			{Name: domain.InvariantBalanceFloor, Passed: true, Detail: "balance 1050.00 >= floor 1000.00"},
		},
	}

	if err := store.Insert(ctx, report); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "rep1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SpeedMode != domain.SpeedModeNormal {
		t.Errorf("SpeedMode mismatch: got %s", got.SpeedMode)
	}
	if len(got.InvariantResults) != 1 {
		t.Errorf("Expected 1 invariant result, got %d", len(got.InvariantResults))
	}
}

func TestAuditReportStore_DuplicateKey(t *testing.T) {
	store := NewAuditReportStore()
	ctx := context.Background()

	report := &domain.AuditReport{ReportID: "rep1", SessionID: "sess1", ReportNumber: 1}
	if err := store.Insert(ctx, report); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, report)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAuditReportStore_GetBySessionOrdered(t *testing.T) {
	store := NewAuditReportStore()
	ctx := context.Background()

	for _, n := range []int{3, 1, 2} {
		report := &domain.AuditReport{
			ReportID:     "rep" + string(rune('0'+n)),
			SessionID:    "sess1",
			ReportNumber: n,
		}
		if err := store.Insert(ctx, report); err != nil {
			t.Fatalf("Insert %d failed: %v", n, err)
		}
	}

	result, err := store.GetBySession(ctx, "sess1")
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(result))
	}
	for i, r := range result {
		if r.ReportNumber != i+1 {
			t.Errorf("Position %d: expected report number %d, got %d", i, i+1, r.ReportNumber)
		}
	}
}

func TestAuditReportStore_GetLatest(t *testing.T) {
	store := NewAuditReportStore()
	ctx := context.Background()

	if _, err := store.GetLatest(ctx, "sess1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty session, got %v", err)
	}

	for n := 1; n <= 3; n++ {
		report := &domain.AuditReport{
			ReportID:     "rep" + string(rune('0'+n)),
			SessionID:    "sess1",
			ReportNumber: n,
		}
		if err := store.Insert(ctx, report); err != nil {
			t.Fatalf("Insert %d failed: %v", n, err)
		}
	}

	latest, err := store.GetLatest(ctx, "sess1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.ReportNumber != 3 {
		t.Errorf("Expected latest report number 3, got %d", latest.ReportNumber)
	}
}

func TestAuditReportStore_DeepCopyOnRead(t *testing.T) {
	store := NewAuditReportStore()
	ctx := context.Background()

	report := &domain.AuditReport{
		ReportID:     "rep1",
		SessionID:    "sess1",
		ReportNumber: 1,
		InvariantResults: []domain.InvariantResult{
			{Name: domain.InvariantMinProfitEnforced, Passed: true},
		},
	}
	if err := store.Insert(ctx, report); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "rep1")
	got.InvariantResults[0].Passed = false

	again, _ := store.GetByID(ctx, "rep1")
	if !again.InvariantResults[0].Passed {
		t.Errorf("Stored report was mutated through a read copy")
	}
}
