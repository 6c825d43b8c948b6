package service

import "fmt"

// slotCount is the number of physical locker positions, coded 00-99.
const slotCount = 100

// firstFreeSlot returns the lowest unoccupied slot code, or "" when
// the locker is full.
func firstFreeSlot(occupied []string) string {
	taken := make(map[string]struct{}, len(occupied))
	for _, code := range occupied {
		taken[code] = struct{}{}
	}
	for i := 0; i < slotCount; i++ {
		code := fmt.Sprintf("%02d", i)
		if _, ok := taken[code]; !ok {
			return code
		}
	}
	return ""
}
