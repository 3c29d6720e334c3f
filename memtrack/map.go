package memtrack

import (
	"sort"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"

	"github.com/outofforest/photon"
)

const (
	initialCapacity = 256
	initialShift    = 64 - 8
)

var (
	// ErrDuplicateAddress is returned when address is inserted twice without erasing it in between.
	ErrDuplicateAddress = errors.New("address is already tracked")

	// ErrUntrackedAddress is returned when there is no live record for the address.
	ErrUntrackedAddress = errors.New("address is not tracked")

	// ErrInvalidAddress is returned for the zero address, which marks empty slots.
	ErrInvalidAddress = errors.New("zero address can't be tracked")
)

// Record stores provenance of single allocation.
type Record struct {
	Address      uintptr
	SourceFile   string
	FunctionName string
	LineNumber   int
}

// NewMap creates new allocation map.
func NewMap() *Map {
	return &Map{
		slots:  make([]Record, initialCapacity),
		shift:  initialShift,
		growAt: initialCapacity / 4 * 3,
	}
}

// Map is the open-addressing hash table storing allocation records keyed by address.
// Map is not safe for concurrent use, Tracker serializes access to it.
type Map struct {
	slots  []Record
	used   uint64
	growAt uint64
	shift  uint8
}

// Insert inserts new record.
func (m *Map) Insert(r Record) error {
	if r.Address == 0 {
		return errors.WithStack(ErrInvalidAddress)
	}

	if _, found := m.find(r.Address); found {
		return errors.Wrapf(ErrDuplicateAddress, "address: %#x", r.Address)
	}

	if m.used+1 >= m.growAt {
		m.grow()
	}

	mask := uint64(len(m.slots) - 1)
	for slot := m.bucket(r.Address); ; slot = (slot + 1) & mask {
		switch m.slots[slot].Address {
		case 0:
			m.slots[slot] = r
			m.used++
			return nil
		case r.Address:
			return errors.Wrapf(ErrDuplicateAddress, "address: %#x", r.Address)
		}
	}
}

// Lookup returns record stored for the address.
func (m *Map) Lookup(address uintptr) (Record, error) {
	slot, found := m.find(address)
	if !found {
		return Record{}, errors.Wrapf(ErrUntrackedAddress, "address: %#x", address)
	}
	return m.slots[slot], nil
}

// Erase removes record of the address.
func (m *Map) Erase(address uintptr) error {
	slot, found := m.find(address)
	if !found {
		return errors.Wrapf(ErrUntrackedAddress, "address: %#x", address)
	}

	// Backward shift keeps probe chains unbroken so lookups may stop on the first empty slot.
	mask := uint64(len(m.slots) - 1)
	hole := slot
	for next := (hole + 1) & mask; m.slots[next].Address != 0; next = (next + 1) & mask {
		home := m.bucket(m.slots[next].Address)
		if cyclicallyBetween(home, hole, next) {
			continue
		}
		m.slots[hole] = m.slots[next]
		hole = next
	}
	m.slots[hole] = Record{}
	m.used--

	return nil
}

// Records returns snapshot of all live records sorted by address.
func (m *Map) Records() []Record {
	records := make([]Record, 0, m.used)
	for _, r := range m.slots {
		if r.Address != 0 {
			records = append(records, r)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Address < records[j].Address
	})
	return records
}

// Len returns the number of live records.
func (m *Map) Len() uint64 {
	return m.used
}

// Capacity returns the number of slots.
func (m *Map) Capacity() uint64 {
	return uint64(len(m.slots))
}

func (m *Map) find(address uintptr) (uint64, bool) {
	if address == 0 {
		return 0, false
	}

	mask := uint64(len(m.slots) - 1)
	start := m.bucket(address)
	slot := start
	for {
		switch m.slots[slot].Address {
		case address:
			return slot, true
		case 0:
			return 0, false
		}

		slot = (slot + 1) & mask
		if slot == start {
			return 0, false
		}
	}
}

func (m *Map) grow() {
	oldSlots := m.slots
	m.slots = make([]Record, 2*len(oldSlots))
	m.shift--
	m.growAt = uint64(len(m.slots)) / 4 * 3

	mask := uint64(len(m.slots) - 1)
	for _, r := range oldSlots {
		if r.Address == 0 {
			continue
		}
		slot := m.bucket(r.Address)
		for m.slots[slot].Address != 0 {
			slot = (slot + 1) & mask
		}
		m.slots[slot] = r
	}
}

// bucket takes the high bits of the hash.
func (m *Map) bucket(address uintptr) uint64 {
	a := uint64(address)
	return xxhash.Sum64(photon.NewFromValue(&a).B) >> m.shift
}

// cyclicallyBetween tells if home lies in the cyclic range (hole, slot].
func cyclicallyBetween(home, hole, slot uint64) bool {
	if hole <= slot {
		return hole < home && home <= slot
	}
	return hole < home || home <= slot
}
