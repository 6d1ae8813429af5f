// Package validate implements the top-level block and transaction
// validation pipeline: header checks, merkle check, per-transaction
// checks, P2PKH script verification, and the error taxonomy the
// coordinator consumes on rejection.
package validate

import (
	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
	"archivalnode/keys"
	"archivalnode/powtarget"
	"archivalnode/utxo"
)

// ValidateBlock runs every consensus rule against block, which extends
// parentHash. It never mutates view's UTXO set; callers apply the block
// themselves once validation succeeds.
func ValidateBlock(block *chain.Block, parentHash encoding.Hash256, view ChainView, wallClockUnix int64) error {
	params := view.Params()

	parentHeader, ok := view.AncestorHeader(parentHash, 0)
	if !ok {
		panic("validate: parent block missing from chain view")
	}
	parentHeight, ok := view.HeightOf(parentHash)
	if !ok {
		panic("validate: parent height missing from chain view")
	}
	height := parentHeight + 1

	blockHash := block.Header.Hash()
	if !powtarget.MeetsDifficultyTarget(blockHash, block.Header.NBits) {
		return blockErr(InvalidPoW, "block hash exceeds target for nbits 0x%08x", block.Header.NBits)
	}

	expectedNBits := expectedDifficultyAt(height, params, parentHash, parentHeader, view)
	if block.Header.NBits != expectedNBits {
		return blockErr(InvalidDifficulty, "nbits 0x%08x, expected 0x%08x", block.Header.NBits, expectedNBits)
	}

	mtp := medianTimePastAt(parentHash, height, view)
	if block.Header.Timestamp <= mtp {
		return blockErr(InvalidTimestamp, "timestamp %d does not exceed median-time-past %d", block.Header.Timestamp, mtp)
	}
	if consensusrules.IsFutureTimestamp(block.Header.Timestamp, wallClockUnix) {
		return blockErr(InvalidTimestamp, "timestamp %d too far in the future", block.Header.Timestamp)
	}

	if size := len(block.Serialize()); size > chain.MaxBlockSize {
		return blockErr(BlockTooLarge, "serialized size %d exceeds %d", size, chain.MaxBlockSize)
	}

	if len(block.Transactions) == 0 {
		return blockErr(BadCoinbase, "block has no transactions")
	}
	if !block.Transactions[0].IsCoinbase() {
		return blockErr(BadCoinbase, "transactions[0] is not coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return blockErr(BadCoinbase, "coinbase found outside transactions[0]")
		}
	}

	if block.HasDuplicateTxids() {
		return blockErr(DuplicateTransaction, "block contains duplicate txids")
	}

	utxoView := view.UTXOView()
	spentInBlock := make(map[utxo.OutPoint]bool)

	var totalFees int64
	for _, tx := range block.Transactions[1:] {
		fee, err := validateTransaction(&tx, utxoView, spentInBlock, height, params)
		if err != nil {
			return err
		}
		totalFees += fee
	}

	coinbaseOut := sumOutputs(&block.Transactions[0])
	reward := consensusrules.BlockReward(height)
	if coinbaseOut > reward+totalFees {
		return blockErr(BadCoinbase, "coinbase pays %d, reward+fees allow %d", coinbaseOut, reward+totalFees)
	}

	if got := block.MerkleRoot(); got != block.Header.MerkleRoot {
		return blockErr(BadMerkleRoot, "computed %s, header has %s", got, block.Header.MerkleRoot)
	}

	return nil
}

// expectedDifficultyAt gathers the ancestor data consensusrules.ExpectedDifficulty
// needs and only walks back the full adjustment window when height actually
// sits on a retarget boundary.
func expectedDifficultyAt(height uint64, params consensusrules.Params, parentHash encoding.Hash256, parentHeader chain.BlockHeader, view ChainView) uint32 {
	if params.AdjustmentInterval == 0 || height%params.AdjustmentInterval != 0 {
		return parentHeader.NBits
	}
	first, ok := view.AncestorHeader(parentHash, params.AdjustmentInterval-1)
	if !ok {
		return parentHeader.NBits
	}
	return consensusrules.ExpectedDifficulty(height, params, parentHeader.NBits, first.Timestamp, parentHeader.Timestamp)
}

// medianTimePastAt collects up to MedianTimeSpan ancestor timestamps ending
// at parentHash (inclusive) and returns their median.
func medianTimePastAt(parentHash encoding.Hash256, height uint64, view ChainView) uint32 {
	window := consensusrules.MedianTimeSpan
	if height < uint64(window) {
		window = int(height)
	}
	timestamps := make([]uint32, 0, window)
	for i := 0; i < window; i++ {
		h, ok := view.AncestorHeader(parentHash, uint64(i))
		if !ok {
			break
		}
		timestamps = append(timestamps, h.Timestamp)
	}
	return consensusrules.MedianTimePast(timestamps)
}

func sumOutputs(tx *chain.Transaction) int64 {
	var total int64
	for _, o := range tx.Outputs {
		total += o.Value
	}
	return total
}

// validateTransaction implements validate_transaction(tx, view): input/output
// presence, UTXO existence and non-double-spend, coinbase maturity, balance,
// P2PKH script verification, and output bounds. It marks each referenced
// outpoint in spentInBlock as soon as it is consumed so later transactions
// in the same block see it as spent.
func validateTransaction(tx *chain.Transaction, utxoView *utxo.Set, spentInBlock map[utxo.OutPoint]bool, height uint64, params consensusrules.Params) (int64, error) {
	txid := tx.Txid().String()

	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return 0, txErr(EmptyTransaction, txid, "transaction needs at least one input and one output")
	}

	entries := make([]utxo.Entry, len(tx.Inputs))
	var sumIn int64
	for i, in := range tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Index: in.PrevIndex}
		if spentInBlock[op] {
			return 0, txErr(DoubleSpend, txid, "outpoint %s:%d already spent earlier in this block", op.Txid, op.Index)
		}
		entry, ok := utxoView.Get(op)
		if !ok {
			return 0, txErr(MissingUTXO, txid, "outpoint %s:%d not found", op.Txid, op.Index)
		}
		if entry.IsCoinbase && height-entry.BlockHeight < params.CoinbaseMaturity {
			return 0, txErr(ImmatureCoinbase, txid, "coinbase at height %d spent at height %d, maturity %d", entry.BlockHeight, height, params.CoinbaseMaturity)
		}
		spentInBlock[op] = true
		entries[i] = entry
		sumIn += entry.Value
	}

	var sumOut int64
	for _, o := range tx.Outputs {
		if o.Value < 0 {
			return 0, txErr(OutputOverflow, txid, "negative output value %d", o.Value)
		}
		sumOut += o.Value
	}
	if sumOut > consensusrules.MaxMoney {
		return 0, txErr(OutputOverflow, txid, "output sum %d exceeds max money %d", sumOut, consensusrules.MaxMoney)
	}

	if sumIn < sumOut {
		return 0, txErr(InsufficientInput, txid, "inputs sum %d, outputs sum %d", sumIn, sumOut)
	}
	fee := sumIn - sumOut

	sighash := tx.Sighash()
	for i, in := range tx.Inputs {
		if err := verifyP2PKHSpend(entries[i], in.SignatureScript, sighash); err != nil {
			return 0, &ValidationError{Code: InvalidSignature, TxID: txid, Cause: err}
		}
	}

	return fee, nil
}

// verifyP2PKHSpend checks that signatureScript's pubkey hashes to entry's
// pubkey_script and that its signature verifies over sighash.
func verifyP2PKHSpend(entry utxo.Entry, signatureScript []byte, sighash encoding.Hash256) error {
	sigHex, pubKeyHex, err := chain.SplitSignatureScript(signatureScript)
	if err != nil {
		return err
	}
	pubKeyBytes, err := encoding.FromHex(pubKeyHex)
	if err != nil {
		return err
	}
	pub, err := keys.ParsePubKey(pubKeyBytes)
	if err != nil {
		return err
	}
	hash160 := encoding.Hash160(pubKeyBytes)
	if encoding.ToHex(hash160[:]) != entry.Hash160Hex() {
		return encoding.ErrInvalidEncoding("pubkey does not hash to the referenced output's pubkey_script")
	}
	sigBytes, err := encoding.FromHex(sigHex)
	if err != nil {
		return err
	}
	sig, err := keys.ParseSignature(sigBytes)
	if err != nil {
		return err
	}
	if !keys.Verify(pub, sighash, sig) {
		return encoding.ErrInvalidEncoding("signature does not verify")
	}
	return nil
}
