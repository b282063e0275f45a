package models_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/socioadmin/tesoreria_backend/config"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/utils"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

// Ledger consistency integration harness.
//
// Usage (requires MySQL, and Redis for the sequence counter):
//   INTEGRATION_TESTS=1 go test ./models -run Flow -v
//
// Covers the invariants that need a real transaction boundary:
// mirroring, due payment atomicity, deletion guards, recalculation.

func integrationSetup(t *testing.T) context.Context {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateDatabase(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := utils.SetActorIdInContext(context.Background(), 1)
	ctx = utils.SetActorNameInContext(ctx, "IntegrationTest")
	ctx = utils.SetCorrelationIdInContext(ctx, "it-"+fmt.Sprint(time.Now().UnixNano()))
	return ctx
}

func newTestMember(t *testing.T, ctx context.Context) *models.Member {
	t.Helper()
	member, err := models.CreateMember(ctx, &models.NewMember{
		Name:  fmt.Sprintf("Member %d", time.Now().UnixNano()),
		Email: "member@example.com",
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

func ledgerEntryFor(t *testing.T, ctx context.Context, column string, id int) *models.LedgerEntry {
	t.Helper()
	db := config.GetDB()
	var entry models.LedgerEntry
	if err := db.WithContext(ctx).Where(column+" = ?", id).First(&entry).Error; err != nil {
		t.Fatalf("load entry for %s=%d: %v", column, id, err)
	}
	return &entry
}

func TestFlow_PaymentMirrorsExpenseEntry(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	payment, err := models.CreatePayment(ctx, &models.NewPayment{
		MemberId:    member.ID,
		PaymentDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("850.25"),
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	entry := ledgerEntryFor(t, ctx, "payment_id", payment.ID)
	if entry.Kind != models.EntryKindExpense {
		t.Fatalf("entry kind %s", entry.Kind)
	}
	if !entry.Amount.Equal(payment.Amount) || !entry.ExpenseAmount.Equal(payment.Amount) {
		t.Fatalf("entry amount %s / expense %s, want %s", entry.Amount, entry.ExpenseAmount, payment.Amount)
	}

	// mirror follows the document update
	newAmount := decimal.RequireFromString("900.00")
	if _, err := models.UpdatePayment(ctx, payment.ID, &models.PaymentPatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update payment: %v", err)
	}
	entry = ledgerEntryFor(t, ctx, "payment_id", payment.ID)
	if !entry.Amount.Equal(newAmount) {
		t.Fatalf("mirror amount %s after update, want %s", entry.Amount, newAmount)
	}

	// no orphan entries
	if _, err := models.DeletePayment(ctx, payment.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	db := config.GetDB()
	var count int64
	db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("payment_id = ?", payment.ID).Count(&count)
	if count != 0 {
		t.Fatalf("entry survived payment delete")
	}
}

func TestFlow_PayDueIsAtomicAndGuarded(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	due, err := models.CreateDue(ctx, &models.NewDue{
		MemberId: &member.ID,
		Period:   fmt.Sprintf("p-%d", time.Now().UnixNano()),
		Amount:   decimal.RequireFromString("1200"),
	})
	if err != nil {
		t.Fatalf("create due: %v", err)
	}
	if due.ReceiptNumber == "" || due.SequenceNo == 0 {
		t.Fatalf("due missing receipt number: %+v", due)
	}

	paid, err := models.PayDue(ctx, due.ID, &models.PayDueInput{})
	if err != nil {
		t.Fatalf("pay due: %v", err)
	}
	if !paid.Paid || !paid.AmountPaid.Equal(due.Amount) {
		t.Fatalf("paid state: %+v", paid)
	}

	// the settling collection and its income entry exist
	db := config.GetDB()
	var collection models.Collection
	if err := db.WithContext(ctx).Where("due_id = ?", due.ID).First(&collection).Error; err != nil {
		t.Fatalf("settling collection missing: %v", err)
	}
	entry := ledgerEntryFor(t, ctx, "collection_id", collection.ID)
	if entry.Kind != models.EntryKindIncome {
		t.Fatalf("entry kind %s", entry.Kind)
	}

	// paying again is a conflict
	if _, err := models.PayDue(ctx, due.ID, &models.PayDueInput{}); !utils.IsConflict(err) {
		t.Fatalf("second pay: %v", err)
	}
	// a paid due cannot be deleted
	if _, err := models.DeleteDue(ctx, due.ID); !utils.IsConflict(err) {
		t.Fatalf("delete paid due: %v", err)
	}
	// the settling collection cannot be edited or deleted directly
	if _, err := models.DeleteCollection(ctx, collection.ID); !utils.IsConflict(err) {
		t.Fatalf("delete settling collection: %v", err)
	}
}

func TestFlow_MemberlessDue(t *testing.T) {
	ctx := integrationSetup(t)

	due, err := models.CreateDue(ctx, &models.NewDue{
		Period: fmt.Sprintf("pm-%d", time.Now().UnixNano()),
		Amount: decimal.RequireFromString("500"),
	})
	if err != nil {
		t.Fatalf("create memberless due: %v", err)
	}
	if due.MemberId != nil {
		t.Fatalf("member id: %v", *due.MemberId)
	}

	// no member means nothing to hang the settling collection on
	if _, err := models.PayDue(ctx, due.ID, &models.PayDueInput{}); !utils.IsValidation(err) {
		t.Fatalf("pay memberless due: %v", err)
	}

	member := newTestMember(t, ctx)
	if _, err := models.UpdateDue(ctx, due.ID, &models.DuePatch{MemberId: &member.ID}); err != nil {
		t.Fatalf("assign member: %v", err)
	}
	if _, err := models.PayDue(ctx, due.ID, &models.PayDueInput{}); err != nil {
		t.Fatalf("pay after assignment: %v", err)
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []models.ReceiptKind
}

func (n *recordingNotifier) Notify(ctx context.Context, kind models.ReceiptKind, id int) (bool, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return true, "recorded"
}

func (n *recordingNotifier) count(kind models.ReceiptKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, k := range n.kinds {
		if k == kind {
			c++
		}
	}
	return c
}

func TestFlow_DueReceiptDispatchesOnPaymentOnly(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	notifier := &recordingNotifier{}
	models.SetReceiptNotifier(notifier)
	t.Cleanup(func() { models.SetReceiptNotifier(nil) })

	due, err := models.CreateDue(ctx, &models.NewDue{
		MemberId: &member.ID,
		Period:   fmt.Sprintf("pn-%d", time.Now().UnixNano()),
		Amount:   decimal.RequireFromString("800"),
	})
	if err != nil {
		t.Fatalf("create due: %v", err)
	}
	// a creation-time send would mark the due sent and suppress the
	// receipt the payment owes
	if due.DispatchResult != nil || notifier.count(models.ReceiptKindDue) != 0 {
		t.Fatalf("creation dispatched a receipt: %v", notifier.kinds)
	}

	paid, err := models.PayDue(ctx, due.ID, &models.PayDueInput{})
	if err != nil {
		t.Fatalf("pay due: %v", err)
	}
	if got := notifier.count(models.ReceiptKindDue); got != 1 {
		t.Fatalf("payment dispatched %d due receipts, want 1", got)
	}
	if paid.DispatchResult == nil || !paid.DispatchResult.Sent {
		t.Fatalf("payment dispatch result: %+v", paid.DispatchResult)
	}
}

func TestFlow_RecalculationRestoresInvariant(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := models.CreateCollection(ctx, &models.NewCollection{
		MemberId:       member.ID,
		CollectionDate: base,
		Amount:         decimal.RequireFromString("1000"),
	}); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if _, err := models.CreatePayment(ctx, &models.NewPayment{
		MemberId:    member.ID,
		PaymentDate: base.AddDate(0, 0, 1),
		Amount:      decimal.RequireFromString("300"),
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	summary, err := workflow.RecalculateBalances(ctx)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	// check the invariant over the whole table
	db := config.GetDB()
	entries, err := models.FetchLedgerEntriesOrdered(ctx, db)
	if err != nil {
		t.Fatalf("fetch entries: %v", err)
	}
	cumulative := decimal.Zero
	for _, e := range entries {
		cumulative = cumulative.Add(e.IncomeAmount).Sub(e.ExpenseAmount)
		if !e.RunningBalance.Equal(cumulative) {
			t.Fatalf("entry %d balance %s, want %s", e.ID, e.RunningBalance, cumulative)
		}
	}
	if !summary.FinalBalance.Equal(cumulative) {
		t.Fatalf("summary balance %s, want %s", summary.FinalBalance, cumulative)
	}

	// idempotent
	again, err := workflow.RecalculateBalances(ctx)
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if again.EntriesUpdated != 0 {
		t.Fatalf("second pass updated %d entries", again.EntriesUpdated)
	}
}

func TestFlow_RecalculationFreesAdvisoryLock(t *testing.T) {
	ctx := integrationSetup(t)

	if _, err := workflow.RecalculateBalances(ctx); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	// GET_LOCK is session-scoped: a run must not hand its pooled connection
	// back still holding the lock.
	db := config.GetDB()
	var free int
	if err := db.WithContext(ctx).Raw("SELECT IS_FREE_LOCK('ledger:recalc')").Scan(&free).Error; err != nil {
		t.Fatalf("check lock: %v", err)
	}
	if free != 1 {
		t.Fatal("advisory lock still held after recalculation")
	}

	// a follow-up run must not sit in GET_LOCK waiting on a leaked lock
	done := make(chan error, 1)
	go func() {
		_, err := workflow.RecalculateBalances(ctx)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow-up recalculate: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("follow-up recalculation blocked on a leaked lock")
	}
}

func TestFlow_DeleteGuards(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	if _, err := models.CreatePayment(ctx, &models.NewPayment{
		MemberId:    member.ID,
		PaymentDate: time.Now(),
		Amount:      decimal.RequireFromString("10"),
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if _, err := models.DeleteMember(ctx, member.ID); !utils.IsConflict(err) {
		t.Fatalf("delete referenced member: %v", err)
	}

	retention, err := models.CreateRetention(ctx, &models.NewRetention{
		Name: fmt.Sprintf("ret-%d", time.Now().UnixNano()),
		Rate: decimal.RequireFromString("2.5"),
	})
	if err != nil {
		t.Fatalf("create retention: %v", err)
	}
	collection, err := models.CreateCollection(ctx, &models.NewCollection{
		MemberId:       member.ID,
		RetentionId:    &retention.ID,
		CollectionDate: time.Now(),
		Amount:         decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	if !collection.RetentionAmount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("retention amount %s", collection.RetentionAmount)
	}
	if _, err := models.DeleteRetention(ctx, retention.ID); !utils.IsConflict(err) {
		t.Fatalf("delete retention in use: %v", err)
	}

	// once the referencing collection is gone the retention is deletable,
	// historical audit rows notwithstanding
	if _, err := models.DeleteCollection(ctx, collection.ID); err != nil {
		t.Fatalf("delete collection: %v", err)
	}
	if _, err := models.DeleteRetention(ctx, retention.ID); err != nil {
		t.Fatalf("delete retention after collection gone: %v", err)
	}
}

func TestFlow_AuditTrailRecordsActions(t *testing.T) {
	ctx := integrationSetup(t)
	member := newTestMember(t, ctx)

	table := "members"
	records, err := models.GetAuditRecords(ctx, &table, &member.ID, nil)
	if err != nil {
		t.Fatalf("get audit records: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("no audit record for member creation")
	}
	rec := records[0]
	if rec.Action != models.ActionTypeCreate {
		t.Fatalf("action %s", rec.Action)
	}
	if rec.ActorName != "IntegrationTest" {
		t.Fatalf("actor %q", rec.ActorName)
	}
	if rec.CorrelationId == "" {
		t.Fatal("correlation id missing")
	}
}
