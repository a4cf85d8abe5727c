package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neomorfeo/parkiq/internal/domain"
)

// FloorSummary is a read-only occupancy snapshot of one floor.
type FloorSummary struct {
	FloorID   string
	Slots     []SlotView
	Available int
	Occupied  int
}

// SlotView is a read-only snapshot of one slot.
type SlotView struct {
	SlotID       string
	Class        domain.VehicleClass
	Occupied     bool
	Registration string
}

// ParkingService orchestrates the token lifecycle over the floor
// registry. It owns the only mutable aggregate state in the core: the
// active-token index and the vehicle-to-slot index, both derived from
// slot occupancy and kept in agreement with it.
//
// All state-mutating operations run under one exclusive lock; the
// allocator search and the subsequent mark-occupied-and-index step form
// a single critical section, otherwise two concurrent parks could
// select the same slot. Reads take the lock in shared mode.
type ParkingService struct {
	mu           sync.RWMutex
	floors       []*domain.Floor
	activeTokens map[string]*domain.Token
	vehicleSlots map[string]*domain.Slot
	// closedTokens records ids of tokens already used to exit, so a
	// repeat exit is distinguishable from a token that never existed.
	closedTokens map[string]struct{}

	publisher domain.AuditPublisher
	validator domain.TransitionValidator
	logger    *slog.Logger
}

// NewParkingService creates a service over the given floor registry.
// Floor order is the allocation priority order and is treated as
// immutable input. At least one floor is required.
func NewParkingService(floors []*domain.Floor, publisher domain.AuditPublisher, validator domain.TransitionValidator, logger *slog.Logger) (*ParkingService, error) {
	if len(floors) == 0 {
		return nil, fmt.Errorf("at least one floor must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParkingService{
		floors:       floors,
		activeTokens: make(map[string]*domain.Token),
		vehicleSlots: make(map[string]*domain.Slot),
		closedTokens: make(map[string]struct{}),
		publisher:    publisher,
		validator:    validator,
		logger:       logger,
	}, nil
}

// Park allocates a slot for the vehicle and issues an active token.
// Fails with AlreadyParkedError if the registration currently occupies
// a slot, or NoSlotAvailableError if no compatible slot is free. On
// allocation failure no state is mutated.
func (s *ParkingService) Park(ctx context.Context, vehicle domain.Vehicle) (domain.Token, error) {
	token, err := s.parkLocked(vehicle)
	if err != nil {
		return domain.Token{}, err
	}

	// The audit write happens outside the critical section and is
	// best-effort: a failed write is logged and ignored, never rolled
	// back into the park.
	if s.publisher != nil {
		record := domain.AuditRecord{
			TokenID:      token.ID,
			SlotID:       token.SlotID,
			Registration: token.Registration,
			Class:        vehicle.Class,
			EntryTime:    token.EntryTime,
		}
		if err := s.publisher.Publish(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "audit publish failed",
				"token_id", token.ID,
				"slot_id", token.SlotID,
				"error", err,
			)
		}
	}

	return token, nil
}

func (s *ParkingService) parkLocked(vehicle domain.Vehicle) (domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, parked := s.vehicleSlots[vehicle.Registration]; parked {
		return domain.Token{}, &domain.AlreadyParkedError{Registration: vehicle.Registration}
	}

	slot, err := domain.FindBestSlot(vehicle.Class, s.floors)
	if err != nil {
		return domain.Token{}, err
	}

	if err := slot.Park(vehicle); err != nil {
		return domain.Token{}, err
	}

	id, err := generateID()
	if err != nil {
		// Undo the occupancy so a transient entropy failure leaves no
		// partial mutation visible.
		if _, freeErr := slot.Free(); freeErr != nil {
			return domain.Token{}, freeErr
		}
		return domain.Token{}, fmt.Errorf("generating token id: %w", err)
	}

	token := domain.NewToken(id, slot.ID, vehicle.Registration)
	s.activeTokens[token.ID] = &token
	s.vehicleSlots[vehicle.Registration] = slot

	return token, nil
}

// Exit closes the token, frees its slot, removes both index entries and
// returns the computed fee. Fails with ErrTokenNotFound for unknown
// ids and TokenAlreadyUsedError when the token is already closed.
// Validation precedes any mutation, so a failed exit leaves no partial
// state visible.
func (s *ParkingService) Exit(ctx context.Context, tokenID string) (int, domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.activeTokens[tokenID]
	if !ok {
		if _, used := s.closedTokens[tokenID]; used {
			return 0, domain.Token{}, &domain.TokenAlreadyUsedError{TokenID: tokenID}
		}
		return 0, domain.Token{}, domain.ErrTokenNotFound
	}

	newStatus, err := s.validator.Apply(ctx, token.Status, domain.EventExit)
	if err != nil {
		return 0, domain.Token{}, err
	}

	slot := s.findSlotByID(token.SlotID)
	if slot == nil {
		return 0, domain.Token{}, &domain.ConsistencyError{
			Detail: "token " + token.ID + " references unknown slot " + token.SlotID,
		}
	}

	vehicle, err := slot.Free()
	if err != nil {
		return 0, domain.Token{}, err
	}

	token.Status = newStatus
	token.ExitTime = time.Now().UTC()

	delete(s.vehicleSlots, vehicle.Registration)
	delete(s.activeTokens, tokenID)
	s.closedTokens[tokenID] = struct{}{}

	fee, err := domain.CalculateFee(vehicle.Class.HourlyRate(), token.EntryTime, token.ExitTime)
	if err != nil {
		return 0, domain.Token{}, err
	}

	return fee, *token, nil
}

// Search returns a snapshot of the slot currently occupied by the given
// registration, or ErrVehicleNotFound.
func (s *ParkingService) Search(_ context.Context, registration string) (SlotView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.vehicleSlots[registration]
	if !ok {
		return SlotView{}, domain.ErrVehicleNotFound
	}
	return snapshotSlot(slot), nil
}

// QuoteFee computes a fee preview for a still-active token using
// caller-supplied timestamps. No state is mutated; the token remains
// active.
func (s *ParkingService) QuoteFee(_ context.Context, tokenID string, entry, exit time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.activeTokens[tokenID]
	if !ok {
		return 0, domain.ErrTokenNotFound
	}

	slot := s.findSlotByID(token.SlotID)
	if slot == nil || slot.Occupant() == nil {
		return 0, &domain.ConsistencyError{
			Detail: "active token " + token.ID + " has no occupied slot " + token.SlotID,
		}
	}

	return domain.CalculateFee(slot.Occupant().Class.HourlyRate(), entry, exit)
}

// Floors returns a consistent occupancy snapshot of every floor, in
// registry priority order.
func (s *ParkingService) Floors(_ context.Context) []FloorSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FloorSummary, 0, len(s.floors))
	for _, floor := range s.floors {
		summary := FloorSummary{
			FloorID:   floor.ID,
			Slots:     make([]SlotView, 0, len(floor.Slots())),
			Available: floor.CountAvailable(),
			Occupied:  floor.CountOccupied(),
		}
		for _, slot := range floor.Slots() {
			summary.Slots = append(summary.Slots, snapshotSlot(slot))
		}
		out = append(out, summary)
	}
	return out
}

// findSlotByID scans all floors for the slot. Callers must hold the lock.
func (s *ParkingService) findSlotByID(slotID string) *domain.Slot {
	for _, floor := range s.floors {
		for _, slot := range floor.Slots() {
			if slot.ID == slotID {
				return slot
			}
		}
	}
	return nil
}

func snapshotSlot(slot *domain.Slot) SlotView {
	view := SlotView{
		SlotID:   slot.ID,
		Class:    slot.Class,
		Occupied: slot.Occupied(),
	}
	if v := slot.Occupant(); v != nil {
		view.Registration = v.Registration
	}
	return view
}
