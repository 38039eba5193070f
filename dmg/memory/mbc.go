package memory

import "fmt"

// decoder turns writes to the cartridge ROM window into bank selections.
type decoder interface {
	write(c *Cartridge, address uint16, value uint8) error
}

var decoders = map[Controller]decoder{
	NoMBC: noMBC{},
	MBC1:  mbc1{},
	MBC3:  mbc3{},
	MBC5:  mbc5{},
}

// noMBC cartridges map 32 KiB of ROM directly; control writes are ignored.
type noMBC struct{}

func (noMBC) write(*Cartridge, uint16, uint8) error { return nil }

// mbc1 decodes by the top three address bits:
//
//	0x0000-0x1FFF  RAM enable when the low nibble is 0xA
//	0x2000-0x3FFF  low 5 bits of the ROM bank, 0 selects 1
//	0x4000-0x5FFF  RAM bank in banking mode, ROM bank bits 5-6 otherwise
//	0x6000-0x7FFF  banking mode select
type mbc1 struct{}

func (mbc1) write(c *Cartridge, address uint16, value uint8) error {
	next := c.state
	switch address >> 13 {
	case 0:
		next.RAMEnabled = value&0x0F == 0x0A
	case 1:
		next.Low = value & 0x1F
		if next.Low == 0 {
			next.Low = 1
		}
	case 2:
		next.High = value & 0x03
	case 3:
		next.Mode = value & 0x01
	}

	romN, ram := int(next.Low), 0
	if next.Mode == 0 {
		romN |= int(next.High) << 5
	} else {
		ram = int(next.High)
	}
	return c.commit(next, romN, ram)
}

// mbc3 adds a 7 bit ROM bank number and maps the clock registers into the
// RAM window when 0x08-0x0C is written to the RAM bank register. Writing
// 0x00 then 0x01 to 0x6000-0x7FFF latches the clock.
type mbc3 struct{}

func (mbc3) write(c *Cartridge, address uint16, value uint8) error {
	next := c.state
	switch address >> 13 {
	case 0:
		next.RAMEnabled = value&0x0F == 0x0A
	case 1:
		next.Low = value & 0x7F
		if next.Low == 0 {
			next.Low = 1
		}
	case 2:
		switch {
		case value <= 0x03:
			next.RTCSelect = 0
			next.RAMReg = value
		case value >= 0x08 && value <= 0x0C && c.HasRTC:
			next.RTCSelect = value
		}
	case 3:
		if next.LatchArm && value == 0x01 && c.HasRTC {
			c.rtc.latch(c.clock.Now())
		}
		next.LatchArm = value == 0x00
	}
	return c.commit(next, int(next.Low), int(next.RAMReg))
}

// mbc5 has a 9 bit ROM bank number split over two registers, where bank 0
// is selectable, and a 4 bit RAM bank number.
type mbc5 struct{}

func (mbc5) write(c *Cartridge, address uint16, value uint8) error {
	next := c.state
	switch {
	case address < 0x2000:
		next.RAMEnabled = value&0x0F == 0x0A
	case address < 0x3000:
		next.Low = value
	case address < 0x4000:
		next.High = value & 0x01
	case address < 0x6000:
		next.RAMReg = value & 0x0F
	default:
		return nil
	}
	return c.commit(next, int(next.High)<<8|int(next.Low), int(next.RAMReg))
}

// commit masks the requested banks against the parsed bank counts and
// applies next only if both are in range.
func (c *Cartridge) commit(next bankState, romN, ram int) error {
	var err error
	if next.ROMN, err = selectBank("rom", romN, len(c.rom)); err != nil {
		return err
	}
	if next.RAM, err = selectBank("ram", ram, len(c.ram)); err != nil {
		return err
	}
	c.state = next
	return nil
}

func selectBank(kind string, bank, count int) (int, error) {
	if count == 0 {
		return 0, nil
	}
	bank &= bankMask(count)
	if bank >= count {
		return 0, fmt.Errorf("%w: %s bank %d, cartridge has %d", ErrBankOutOfRange, kind, bank, count)
	}
	return bank, nil
}

// bankMask is the smallest all-ones mask covering count banks, matching the
// number of bank lines wired on the board.
func bankMask(count int) int {
	m := 1
	for m < count {
		m <<= 1
	}
	return m - 1
}
