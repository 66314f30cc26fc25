package registry

import (
	"context"
	"sync"

	lnsms "github.com/lnsms/go"
)

// MemoryStore provides an in-memory implementation of lnsms.Store.
//
// This implementation is suitable for single-instance deployments where
// registry state doesn't need to survive a restart or be shared across
// processes. There is no expiry and no capacity bound.
//
// Features:
//   - Thread-safe with mutex protection
//   - Copies in and out, so callers never alias stored records
//   - Per-charge locks for the fulfillment critical section
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*lnsms.PaymentRequest
	locks    *KeyLocker
}

// NewMemoryStore creates a new, empty in-memory registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*lnsms.PaymentRequest),
		locks:    NewKeyLocker(),
	}
}

// Insert adds a request, failing with lnsms.ErrDuplicateKey if the charge id exists.
func (s *MemoryStore) Insert(_ context.Context, req *lnsms.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ChargeID]; exists {
		return lnsms.ErrDuplicateKey
	}
	s.requests[req.ChargeID] = req.Clone()
	return nil
}

// Get returns a copy of the request stored under chargeID.
func (s *MemoryStore) Get(_ context.Context, chargeID string) (*lnsms.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[chargeID]
	if !ok {
		return nil, lnsms.NotFoundError(chargeID)
	}
	return req.Clone(), nil
}

// UpdateOnDelivery marks the request delivered and completed.
func (s *MemoryStore) UpdateOnDelivery(_ context.Context, chargeID string, delivery lnsms.Delivery) (*lnsms.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[chargeID]
	if !ok {
		return nil, lnsms.NotFoundError(chargeID)
	}
	if req.Delivered {
		return nil, lnsms.ErrAlreadyDelivered
	}

	applyDelivery(req, delivery)
	return req.Clone(), nil
}

// Lock acquires the per-charge lock.
func (s *MemoryStore) Lock(ctx context.Context, chargeID string) (func(), error) {
	return s.locks.Lock(ctx, chargeID)
}

// Len returns the number of registered requests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

func applyDelivery(req *lnsms.PaymentRequest, delivery lnsms.Delivery) {
	deliveredAt := delivery.DeliveredAt
	req.Delivered = true
	req.Status = lnsms.StatusCompleted
	req.DeliveryReceiptID = delivery.ReceiptID
	req.SenderNumber = delivery.SenderNumber
	req.DeliveredAt = &deliveredAt
	req.PaidAt = nil
	if delivery.PaidAt != nil {
		paidAt := *delivery.PaidAt
		req.PaidAt = &paidAt
	}
}

// Ensure MemoryStore implements lnsms.Store
var _ lnsms.Store = (*MemoryStore)(nil)
