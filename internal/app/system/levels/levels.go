// internal/app/system/levels/levels.go

// Package levels holds the XP curve shared by the API and the bot.
package levels

import "math"

// FromXP maps accumulated XP to a level: level = floor(sqrt(xp/100)).
// 100 XP reaches level 1, 400 reaches level 2, 10000 reaches level 10.
func FromXP(xp int) int {
	if xp <= 0 {
		return 0
	}
	return int(math.Sqrt(float64(xp) / 100))
}

// XPFor returns the XP needed to reach the given level.
func XPFor(level int) int {
	if level <= 0 {
		return 0
	}
	return level * level * 100
}
