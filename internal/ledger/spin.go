package ledger

// IntnSource is the random source used for spin draws; *rand.Rand satisfies it
type IntnSource interface {
	Intn(n int) int
}

// SpinRewards are the wheel segments
var SpinRewards = []int{20, 50, 100, 200, 10, 5}

// SpinReward draws one wheel segment
func SpinReward(src IntnSource) int {
	return SpinRewards[src.Intn(len(SpinRewards))]
}
