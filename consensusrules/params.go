// Package consensusrules holds the pure, parameter-driven consensus rules:
// the per-profile configuration, the block subsidy schedule, the
// block/coinbase/timestamp rules, and difficulty retargeting. Nothing here
// touches chain state directly; callers pass in whatever ancestor data a
// rule needs.
package consensusrules

// Mode selects which configuration profile a coordinator runs under.
type Mode int

const (
	Dev Mode = iota
	Prod
)

// Params is an immutable consensus configuration, constructed once at
// coordinator creation and passed by reference into validators and the
// miner. Keeping it immutable removes the hidden global-configuration
// state common to reference implementations and makes difficulty
// adjustment trivially pure.
type Params struct {
	Mode               Mode
	MaxTargetNBits     uint32
	AdjustmentInterval uint64
	TargetBlockTimeSec uint32
	CoinbaseMaturity   uint64
}

// DevParams returns the development profile: fast blocks, short maturity,
// easy difficulty, suited to tests and local experimentation.
func DevParams() Params {
	return Params{
		Mode:               Dev,
		MaxTargetNBits:     0x1f0fffff,
		AdjustmentInterval: 10,
		TargetBlockTimeSec: 5,
		CoinbaseMaturity:   5,
	}
}

// ProdParams returns the production-scale profile.
func ProdParams() Params {
	return Params{
		Mode:               Prod,
		MaxTargetNBits:     0x1d00ffff,
		AdjustmentInterval: 2016,
		TargetBlockTimeSec: 600,
		CoinbaseMaturity:   100,
	}
}

const (
	// GenesisTimestamp is the hardcoded Unix timestamp for block 0.
	GenesisTimestamp = 1231006505

	// MaxMoney is the total possible supply, in satoshis: 21,000,000 * 10^8.
	MaxMoney = 21_000_000 * 100_000_000

	// SubsidyHalvingInterval is the number of blocks between reward halvings.
	SubsidyHalvingInterval = 210_000

	// InitialSubsidy is the block 1 reward, in satoshis: 50 * 10^8.
	InitialSubsidy = 50 * 100_000_000

	// MedianTimeSpan is the number of ancestor timestamps the MTP rule
	// considers.
	MedianTimeSpan = 11

	// MaxFutureDriftSec is the window a block's timestamp may sit ahead of
	// wall-clock time.
	MaxFutureDriftSec = 2 * 60 * 60
)
