package buffer

import "github.com/jobala/clockbuf/util"

// nextVictim advances the clock hand from hand until it finds a frame that is
// unused, or valid, unpinned and unreferenced. Referenced frames lose their
// reference bit and are passed over once.
//
// busy counts pinned frames seen since the hand last passed its starting
// position. Every time the hand lands on the start the counter is checked: a
// full revolution of pinned frames means no victim exists, anything less resets
// it. The search therefore ends within two revolutions.
//
// The returned hand is the position the next search starts from.
func nextVictim(frames []*frame, hand int) (int, int, error) {
	n := len(frames)
	start := hand
	busy := 0

	for {
		hand = (hand + 1) % n
		f := frames[hand]

		switch {
		case !f.valid:
			return hand, hand, nil
		case f.ref:
			f.ref = false
		case f.pinned():
			busy++
		default:
			return hand, hand, nil
		}

		if hand == start {
			if busy == n {
				return INVALID_FRAME_ID, hand, util.ErrPoolExhausted
			}
			busy = 0
		}
	}
}
