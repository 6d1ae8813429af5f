package consensusrules

// BlockReward computes block_reward(h) = 50e8 >> (h / 210_000), halving
// every SubsidyHalvingInterval blocks until it reaches zero.
func BlockReward(height uint64) int64 {
	halvings := height / SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialSubsidy >> halvings
}
