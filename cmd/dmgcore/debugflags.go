package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valerio/go-dmgcore/dmg/debug"
)

// parseHex16 accepts 1234, 0x1234 and $1234.
func parseHex16(s string) (uint16, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x"), "$")
	v, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}

type debugPoints struct {
	breakpoints []uint16
	opcodes     []uint16
	watchpoints []debug.Watchpoint
}

func parseDebugPoints(breaks, ops, reads, writes []string) (debugPoints, error) {
	var p debugPoints
	for _, s := range breaks {
		a, err := parseHex16(s)
		if err != nil {
			return p, fmt.Errorf("--break: %w", err)
		}
		p.breakpoints = append(p.breakpoints, a)
	}
	for _, s := range ops {
		op, err := parseHex16(s)
		if err != nil || (op > 0xFF && op>>8 != 0xCB) {
			return p, fmt.Errorf("--break-op: invalid opcode %q, want 00-FF or CB00-CBFF", s)
		}
		p.opcodes = append(p.opcodes, op)
	}
	for _, w := range []struct {
		kind debug.WatchKind
		list []string
	}{{debug.Read, reads}, {debug.Write, writes}} {
		kind := w.kind
		for _, s := range w.list {
			a, err := parseHex16(s)
			if err != nil {
				return p, fmt.Errorf("--watch-%s: %w", kind, err)
			}
			p.watchpoints = append(p.watchpoints, debug.Watchpoint{Address: a, Kind: kind})
		}
	}
	return p, nil
}

func (p debugPoints) apply(d *debug.Debugger) error {
	for _, a := range p.breakpoints {
		if err := d.AddBreakpoint(a); err != nil {
			return err
		}
	}
	for _, op := range p.opcodes {
		if err := d.AddInstructionBreakpoint(op); err != nil {
			return err
		}
	}
	for _, w := range p.watchpoints {
		if err := d.AddWatchpoint(w); err != nil {
			return err
		}
	}
	return nil
}
