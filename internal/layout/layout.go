// Package layout builds the initial floor and slot registry consumed by
// the parking service. The registry is constructed once at bootstrap
// and treated as immutable input afterwards.
package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/neomorfeo/parkiq/internal/domain"
)

// FloorConfig describes one floor in a layout file. Floor order in the
// file is the allocation priority order; slot order within a floor is
// "nearest to entrance" order.
type FloorConfig struct {
	ID    string       `json:"id"`
	Slots []SlotConfig `json:"slots"`
}

// SlotConfig describes one slot in a layout file.
type SlotConfig struct {
	ID    string              `json:"id"`
	Class domain.VehicleClass `json:"class"`
}

// Load reads a JSON layout file and builds the floor registry.
func Load(path string) ([]*domain.Floor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}

	var configs []FloorConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parsing layout file: %w", err)
	}

	return Build(configs)
}

// Build converts floor configs into the domain registry, validating
// class names and rejecting duplicate slot ids within and across floors.
func Build(configs []FloorConfig) ([]*domain.Floor, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("layout must define at least one floor")
	}

	seen := make(map[string]string) // slot id -> floor id
	floors := make([]*domain.Floor, 0, len(configs))

	for _, fc := range configs {
		if fc.ID == "" {
			return nil, fmt.Errorf("floor id cannot be empty")
		}
		floor := domain.NewFloor(fc.ID)

		for _, sc := range fc.Slots {
			if sc.ID == "" {
				return nil, fmt.Errorf("slot id cannot be empty on floor %q", fc.ID)
			}
			if !sc.Class.Valid() {
				return nil, fmt.Errorf("slot %q: unknown vehicle class %q", sc.ID, sc.Class)
			}
			if otherFloor, dup := seen[sc.ID]; dup {
				return nil, &domain.DuplicateSlotError{FloorID: otherFloor, SlotID: sc.ID}
			}
			if err := floor.AddSlot(domain.NewSlot(sc.ID, sc.Class)); err != nil {
				return nil, err
			}
			seen[sc.ID] = fc.ID
		}

		floors = append(floors, floor)
	}

	return floors, nil
}

// Default returns the stock two-floor layout: ground floor G1 searched
// first, then F1, each with two-wheeler, four-wheeler and heavy slots.
func Default() []*domain.Floor {
	floors, err := Build(defaultConfigs())
	if err != nil {
		// The default layout is static; failing to build it is a bug.
		panic(err)
	}
	return floors
}

func defaultConfigs() []FloorConfig {
	configs := make([]FloorConfig, 0, 2)
	for _, floorID := range []string{"G1", "F1"} {
		fc := FloorConfig{ID: floorID}
		for i := 1; i <= 5; i++ {
			fc.Slots = append(fc.Slots, SlotConfig{
				ID:    fmt.Sprintf("%s-TW-%d", floorID, i),
				Class: domain.ClassTwoWheeler,
			})
		}
		for i := 6; i <= 12; i++ {
			fc.Slots = append(fc.Slots, SlotConfig{
				ID:    fmt.Sprintf("%s-FW-%d", floorID, i),
				Class: domain.ClassFourWheeler,
			})
		}
		for i := 13; i <= 15; i++ {
			fc.Slots = append(fc.Slots, SlotConfig{
				ID:    fmt.Sprintf("%s-HV-%d", floorID, i),
				Class: domain.ClassHeavy,
			})
		}
		configs = append(configs, fc)
	}
	return configs
}
