package ledger

import (
	"time"
)

// streakBonuses maps the exact streak value that earns a one-off bonus
var streakBonuses = map[int]int{
	3: 50,
	7: 150,
}

// Milestone is a streak target shown to the user
type Milestone struct {
	Days  int `json:"days"`
	Bonus int `json:"bonus"`
}

// milestones drive the progress display only. 15 and 30 are not bonused by Credit.
var milestones = []Milestone{
	{Days: 3, Bonus: 50},
	{Days: 7, Bonus: 150},
	{Days: 15, Bonus: 400},
	{Days: 30, Bonus: 1000},
}

// StreakBonus returns the bonus granted when a streak reaches exactly streak days
func StreakBonus(streak int) int {
	return streakBonuses[streak]
}

// AdvanceStreak computes the streak after an EARN action at now.
// advanced is false when the user already earned today; the streak is then unchanged.
func AdvanceStreak(streak int, lastActive *time.Time, now time.Time) (next int, bonus int, advanced bool) {
	if lastActive != nil && sameDay(*lastActive, now) {
		return streak, 0, false
	}
	if lastActive != nil && sameDay(*lastActive, now.AddDate(0, 0, -1)) {
		next = streak + 1
	} else {
		next = 1
	}
	return next, StreakBonus(next), true
}

// NextMilestone returns the next streak target to display
func NextMilestone(streak int) Milestone {
	for _, m := range milestones {
		if streak < m.Days {
			return m
		}
	}
	return milestones[len(milestones)-1]
}

// sameDay compares calendar dates in now's location
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
