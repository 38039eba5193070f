package addr

import "fmt"

// Region is one of the fixed windows of the 16 bit address space.
type Region uint8

const (
	ROMBank0 Region = iota
	ROMBankN
	VRAM
	ExtRAM
	WRAM
	Echo
	OAM
	Unused
	IO
	HRAM
	InterruptEnable

	// RegionCount is the number of regions, usable as an array length.
	RegionCount
)

var regionBounds = [RegionCount]struct {
	start uint16
	size  int
	name  string
}{
	ROMBank0:        {0x0000, 0x4000, "rom0"},
	ROMBankN:        {0x4000, 0x4000, "romN"},
	VRAM:            {0x8000, 0x2000, "vram"},
	ExtRAM:          {0xA000, 0x2000, "extram"},
	WRAM:            {0xC000, 0x2000, "wram"},
	Echo:            {0xE000, 0x1E00, "echo"},
	OAM:             {0xFE00, 0x00A0, "oam"},
	Unused:          {0xFEA0, 0x0060, "unused"},
	IO:              {0xFF00, 0x0080, "io"},
	HRAM:            {0xFF80, 0x007F, "hram"},
	InterruptEnable: {0xFFFF, 0x0001, "ie"},
}

// Decode maps an absolute address to its region and the offset inside it.
func Decode(address uint16) (Region, uint16) {
	var r Region
	switch {
	case address < 0x4000:
		r = ROMBank0
	case address < 0x8000:
		r = ROMBankN
	case address < 0xA000:
		r = VRAM
	case address < 0xC000:
		r = ExtRAM
	case address < 0xE000:
		r = WRAM
	case address < 0xFE00:
		r = Echo
	case address < 0xFEA0:
		r = OAM
	case address < 0xFF00:
		r = Unused
	case address < 0xFF80:
		r = IO
	case address < 0xFFFF:
		r = HRAM
	default:
		r = InterruptEnable
	}
	return r, address - regionBounds[r].start
}

// Start returns the first absolute address of the region.
func (r Region) Start() uint16 { return regionBounds[r].start }

// Size returns the number of addresses covered by the region.
func (r Region) Size() int { return regionBounds[r].size }

func (r Region) String() string {
	if r >= RegionCount {
		return fmt.Sprintf("region(%d)", uint8(r))
	}
	return regionBounds[r].name
}
