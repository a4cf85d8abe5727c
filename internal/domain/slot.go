package domain

// Slot is a single parking space. Its compatible class is fixed at
// creation; occupancy holds at most one vehicle at any instant.
// Occupancy is only ever mutated inside the parking service's critical
// section, so Slot itself carries no lock.
type Slot struct {
	ID       string
	Class    VehicleClass
	occupant *Vehicle
}

// NewSlot creates an empty slot compatible with exactly one vehicle class.
func NewSlot(id string, class VehicleClass) *Slot {
	return &Slot{ID: id, Class: class}
}

// Occupied reports whether a vehicle is currently parked in the slot.
func (s *Slot) Occupied() bool {
	return s.occupant != nil
}

// Occupant returns the parked vehicle, or nil if the slot is empty.
func (s *Slot) Occupant() *Vehicle {
	return s.occupant
}

// Park places a vehicle in the slot. The allocator only hands out free,
// class-compatible slots; violating either condition here means the
// caller skipped the allocator and is reported as a consistency bug.
func (s *Slot) Park(v Vehicle) error {
	if s.occupant != nil {
		return &ConsistencyError{Detail: "slot " + s.ID + " is already occupied"}
	}
	if v.Class != s.Class {
		return &ConsistencyError{
			Detail: "vehicle class " + string(v.Class) + " not compatible with slot " + s.ID,
		}
	}
	s.occupant = &v
	return nil
}

// Free empties the slot and returns the vehicle that was parked in it.
func (s *Slot) Free() (Vehicle, error) {
	if s.occupant == nil {
		return Vehicle{}, &ConsistencyError{Detail: "slot " + s.ID + " is already free"}
	}
	v := *s.occupant
	s.occupant = nil
	return v, nil
}

// Floor owns an ordered, append-only sequence of slots. Slot order
// models "nearest to entrance": the first slot added is the first
// candidate for allocation.
type Floor struct {
	ID    string
	slots []*Slot
}

// NewFloor creates a floor with no slots.
func NewFloor(id string) *Floor {
	return &Floor{ID: id}
}

// AddSlot appends a slot to the floor. Duplicate slot ids on the same
// floor are rejected.
func (f *Floor) AddSlot(slot *Slot) error {
	for _, existing := range f.slots {
		if existing.ID == slot.ID {
			return &DuplicateSlotError{FloorID: f.ID, SlotID: slot.ID}
		}
	}
	f.slots = append(f.slots, slot)
	return nil
}

// Slots returns the floor's slots in insertion order. The slice must
// not be mutated by callers.
func (f *Floor) Slots() []*Slot {
	return f.slots
}

// FindAvailableSlot returns the first free slot on this floor
// compatible with the given class, or nil if none is available.
func (f *Floor) FindAvailableSlot(class VehicleClass) *Slot {
	for _, slot := range f.slots {
		if !slot.Occupied() && slot.Class == class {
			return slot
		}
	}
	return nil
}

// CountAvailable returns the number of free slots on the floor.
func (f *Floor) CountAvailable() int {
	n := 0
	for _, slot := range f.slots {
		if !slot.Occupied() {
			n++
		}
	}
	return n
}

// CountOccupied returns the number of occupied slots on the floor.
func (f *Floor) CountOccupied() int {
	return len(f.slots) - f.CountAvailable()
}
