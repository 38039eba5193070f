package memory

import "time"

// Clock is the time source of the MBC3 real time clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh // bit 0: day bit 8, bit 6: halt, bit 7: day carry
)

var rtcMasks = [5]uint8{0x3F, 0x3F, 0x1F, 0xFF, 0xC1}

// rtc counts whole seconds of host time while not halted. Reads see the
// values copied by the last latch.
type rtc struct {
	Live    [5]uint8
	Latched [5]uint8
	Last    int64 // unix seconds of the last update
}

func (r *rtc) reset(now time.Time) {
	r.Last = now.Unix()
}

func (r *rtc) advance(now time.Time) {
	elapsed := now.Unix() - r.Last
	r.Last = now.Unix()
	if elapsed <= 0 || r.Live[rtcDaysHigh]&0x40 != 0 {
		return
	}

	days := int64(r.Live[rtcDaysHigh]&0x01)<<8 | int64(r.Live[rtcDaysLow])
	total := days*86400 + int64(r.Live[rtcHours])*3600 + int64(r.Live[rtcMinutes])*60 + int64(r.Live[rtcSeconds]) + elapsed

	r.Live[rtcSeconds] = uint8(total % 60)
	r.Live[rtcMinutes] = uint8(total / 60 % 60)
	r.Live[rtcHours] = uint8(total / 3600 % 24)
	days = total / 86400
	if days > 0x1FF {
		r.Live[rtcDaysHigh] |= 0x80
		days &= 0x1FF
	}
	r.Live[rtcDaysLow] = uint8(days)
	r.Live[rtcDaysHigh] = r.Live[rtcDaysHigh]&0xFE | uint8(days>>8)
}

func (r *rtc) latch(now time.Time) {
	r.advance(now)
	r.Latched = r.Live
}

func (r *rtc) read(sel uint8) uint8 {
	return r.Latched[sel-0x08]
}

func (r *rtc) write(sel, value uint8, now time.Time) {
	r.advance(now)
	i := sel - 0x08
	r.Live[i] = value & rtcMasks[i]
	r.Latched[i] = r.Live[i]
}
