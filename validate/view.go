package validate

import (
	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
	"archivalnode/utxo"
)

// ChainView is the narrow read-only interface the validator needs from the
// coordinator: block headers by ancestry walk, height lookup, the UTXO
// snapshot for the chain path being validated, and the active consensus
// parameters. The coordinator itself depends on the validator, not the
// other way around: ChainView and BlockSink (see chainstate) keep the two
// from needing each other's concrete type.
type ChainView interface {
	// AncestorHeader returns the header `distance` blocks behind hash
	// (distance=0 returns hash's own header). ok is false past genesis.
	AncestorHeader(hash encoding.Hash256, distance uint64) (chain.BlockHeader, bool)

	// HeightOf returns the height of the block with the given hash.
	HeightOf(hash encoding.Hash256) (uint64, bool)

	// UTXOView returns the UTXO set as of the chain position being
	// extended. Callers must not mutate it.
	UTXOView() *utxo.Set

	Params() consensusrules.Params
}
