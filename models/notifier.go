package models

import (
	"context"
	"sync"
)

// ReceiptNotifier is implemented by the notification dispatcher. It runs
// strictly after the financial transaction has committed; its result never
// affects ledger state.
type ReceiptNotifier interface {
	Notify(ctx context.Context, kind ReceiptKind, id int) (sent bool, message string)
}

var (
	notifierMu      sync.RWMutex
	receiptNotifier ReceiptNotifier
)

// SetReceiptNotifier wires the dispatcher in at startup.
func SetReceiptNotifier(n ReceiptNotifier) {
	notifierMu.Lock()
	defer notifierMu.Unlock()
	receiptNotifier = n
}

// notifyCreated performs the single automatic send attempt for a creation
// event. Returns nil when no dispatcher is wired (tests, CLI tools).
func notifyCreated(ctx context.Context, kind ReceiptKind, id int) *NotificationResult {
	notifierMu.RLock()
	n := receiptNotifier
	notifierMu.RUnlock()
	if n == nil {
		return nil
	}
	sent, message := n.Notify(ctx, kind, id)
	return &NotificationResult{Sent: sent, Message: message}
}
