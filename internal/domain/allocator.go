package domain

// FindBestSlot returns the first free slot compatible with the given
// vehicle class, searching floors in the exact order supplied and slots
// in insertion order within each floor. The search is pure and
// stateless, but it observes shared slot occupancy: callers must hold
// the parking service's lock across the search and the subsequent
// occupy step, or two concurrent searches could select the same slot.
func FindBestSlot(class VehicleClass, floors []*Floor) (*Slot, error) {
	for _, floor := range floors {
		if slot := floor.FindAvailableSlot(class); slot != nil {
			return slot, nil
		}
	}
	return nil, &NoSlotAvailableError{Class: class}
}
