package validate

import (
	"testing"

	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
	"archivalnode/keys"
	"archivalnode/powtarget"
	"archivalnode/utxo"
)

// fakeView is a minimal ChainView backed by an explicit header list, used
// to exercise the validator without a full coordinator.
type fakeView struct {
	headers []chain.BlockHeader // index 0 is genesis
	hashes  []encoding.Hash256
	utxo    *utxo.Set
	params  consensusrules.Params
}

func (v *fakeView) indexOf(hash encoding.Hash256) (int, bool) {
	for i, h := range v.hashes {
		if h == hash {
			return i, true
		}
	}
	return 0, false
}

func (v *fakeView) AncestorHeader(hash encoding.Hash256, distance uint64) (chain.BlockHeader, bool) {
	i, ok := v.indexOf(hash)
	if !ok || uint64(i) < distance {
		return chain.BlockHeader{}, false
	}
	return v.headers[uint64(i)-distance], true
}

func (v *fakeView) HeightOf(hash encoding.Hash256) (uint64, bool) {
	i, ok := v.indexOf(hash)
	return uint64(i), ok
}

func (v *fakeView) UTXOView() *utxo.Set { return v.utxo }

func (v *fakeView) Params() consensusrules.Params { return v.params }

func newGenesisView(params consensusrules.Params) *fakeView {
	genesis := chain.BlockHeader{
		Version:       1,
		PrevBlockHash: encoding.ZeroHash,
		Timestamp:     consensusrules.GenesisTimestamp,
		NBits:         params.MaxTargetNBits,
		Nonce:         0,
	}
	hash := genesis.Hash()
	return &fakeView{
		headers: []chain.BlockHeader{genesis},
		hashes:  []encoding.Hash256{hash},
		utxo:    utxo.NewSet(),
		params:  params,
	}
}

func (v *fakeView) append(header chain.BlockHeader) {
	v.headers = append(v.headers, header)
	v.hashes = append(v.hashes, header.Hash())
}

func mineBlock(t *testing.T, view *fakeView, recipient [20]byte, height uint64, parentHash encoding.Hash256, timestamp uint32) *chain.Block {
	t.Helper()
	parentHeader, _ := view.AncestorHeader(parentHash, 0)
	cb := chain.CreateCoinbase(height, consensusrules.BlockReward(height), recipient, 0)

	tmpl := &powtarget.Template{
		Height:      height,
		PrevHash:    parentHash,
		Timestamp:   timestamp,
		NBits:       parentHeader.NBits,
		Coinbase:    cb,
		RecipientH:  recipient,
		BlockReward: consensusrules.BlockReward(height),
	}
	return powtarget.Mine(tmpl)
}

func TestValidateBlockAcceptsFreshlyMinedBlock(t *testing.T) {
	params := consensusrules.DevParams()
	view := newGenesisView(params)
	genesisHash := view.hashes[0]

	var recipient [20]byte
	recipient[0] = 0x01
	block := mineBlock(t, view, recipient, 1, genesisHash, consensusrules.GenesisTimestamp+10)

	if err := ValidateBlock(block, genesisHash, view, int64(consensusrules.GenesisTimestamp+100)); err != nil {
		t.Fatalf("expected freshly mined block to validate, got: %v", err)
	}
}

func TestValidateBlockRejectsBadMerkleRoot(t *testing.T) {
	params := consensusrules.DevParams()
	view := newGenesisView(params)
	genesisHash := view.hashes[0]

	var recipient [20]byte
	recipient[0] = 0x01
	block := mineBlock(t, view, recipient, 1, genesisHash, consensusrules.GenesisTimestamp+10)
	block.Header.MerkleRoot = encoding.DoubleSHA256([]byte("tampered"))

	err := ValidateBlock(block, genesisHash, view, int64(consensusrules.GenesisTimestamp+100))
	if err == nil {
		t.Fatalf("expected validation to reject a tampered merkle root")
	}
	ve, ok := err.(*ValidationError)
	if !ok || (ve.Code != BadMerkleRoot && ve.Code != InvalidPoW) {
		t.Fatalf("expected BadMerkleRoot or InvalidPoW, got %v", err)
	}
}

func TestValidateBlockRejectsStaleMTPTimestamp(t *testing.T) {
	params := consensusrules.DevParams()
	view := newGenesisView(params)
	genesisHash := view.hashes[0]

	var recipient [20]byte
	recipient[0] = 0x01
	block := mineBlock(t, view, recipient, 1, genesisHash, consensusrules.GenesisTimestamp-1)

	err := ValidateBlock(block, genesisHash, view, int64(consensusrules.GenesisTimestamp+100))
	ve, ok := err.(*ValidationError)
	if !ok || ve.Code != InvalidTimestamp {
		t.Fatalf("expected InvalidTimestamp, got %v", err)
	}
}

func TestValidateTransactionRejectsMissingUTXO(t *testing.T) {
	params := consensusrules.DevParams()
	utxoSet := utxo.NewSet()
	spent := make(map[utxo.OutPoint]bool)

	tx := chain.Transaction{
		Inputs: []chain.TransactionInput{{
			PrevTxid:  encoding.DoubleSHA256([]byte("nonexistent")),
			PrevIndex: 0,
		}},
		Outputs: []chain.TransactionOutput{chain.NewP2PKHOutput(100, [20]byte{})},
	}
	_, err := validateTransaction(&tx, utxoSet, spent, 10, params)
	ve, ok := err.(*ValidationError)
	if !ok || ve.Code != MissingUTXO {
		t.Fatalf("expected MissingUTXO, got %v", err)
	}
}

func TestValidateTransactionRejectsImmatureCoinbaseSpend(t *testing.T) {
	params := consensusrules.DevParams()
	utxoSet := utxo.NewSet()
	spent := make(map[utxo.OutPoint]bool)

	op := utxo.OutPoint{Txid: encoding.DoubleSHA256([]byte("cb")), Index: 0}
	_ = utxoSet.Add(op, utxo.Entry{Value: 100, PubKeyScript: []byte("aa"), BlockHeight: 1, IsCoinbase: true})

	tx := chain.Transaction{
		Inputs:  []chain.TransactionInput{{PrevTxid: op.Txid, PrevIndex: op.Index}},
		Outputs: []chain.TransactionOutput{chain.NewP2PKHOutput(50, [20]byte{})},
	}
	// current height - block height == maturity - 1 must fail.
	currentHeight := uint64(1) + params.CoinbaseMaturity - 1
	_, err := validateTransaction(&tx, utxoSet, spent, currentHeight, params)
	ve, ok := err.(*ValidationError)
	if !ok || ve.Code != ImmatureCoinbase {
		t.Fatalf("expected ImmatureCoinbase, got %v", err)
	}
}

func TestValidateTransactionAcceptsMatureCoinbaseSpendWithValidSignature(t *testing.T) {
	params := consensusrules.DevParams()
	utxoSet := utxo.NewSet()
	spent := make(map[utxo.OutPoint]bool)

	kp, err := keys.GenerateKeyPair()
	if err != nil {
		t.Fatalf("unexpected error generating keypair: %v", err)
	}
	recipientHash := keys.PubKeyToHash160(kp.Pub)

	op := utxo.OutPoint{Txid: encoding.DoubleSHA256([]byte("cb")), Index: 0}
	_ = utxoSet.Add(op, utxo.Entry{
		Value:        100,
		PubKeyScript: []byte(recipientHash.Hex()),
		BlockHeight:  1,
		IsCoinbase:   true,
	})

	tx := chain.Transaction{
		Inputs:  []chain.TransactionInput{{PrevTxid: op.Txid, PrevIndex: op.Index}},
		Outputs: []chain.TransactionOutput{chain.NewP2PKHOutput(90, [20]byte{})},
	}
	sig := keys.Sign(kp.Priv, tx.Sighash())
	tx.Inputs[0].SignatureScript = chain.BuildSignatureScript(sig.Serialize(), keys.SerializePubKey(kp.Pub))

	currentHeight := uint64(1) + params.CoinbaseMaturity
	fee, err := validateTransaction(&tx, utxoSet, spent, currentHeight, params)
	if err != nil {
		t.Fatalf("expected mature, correctly-signed spend to validate, got: %v", err)
	}
	if fee != 10 {
		t.Fatalf("expected fee 10, got %d", fee)
	}
}

func TestValidateTransactionRejectsWrongSignature(t *testing.T) {
	params := consensusrules.DevParams()
	utxoSet := utxo.NewSet()
	spent := make(map[utxo.OutPoint]bool)

	kp, _ := keys.GenerateKeyPair()
	other, _ := keys.GenerateKeyPair()
	recipientHash := keys.PubKeyToHash160(kp.Pub)

	op := utxo.OutPoint{Txid: encoding.DoubleSHA256([]byte("cb")), Index: 0}
	_ = utxoSet.Add(op, utxo.Entry{
		Value:        100,
		PubKeyScript: []byte(recipientHash.Hex()),
		BlockHeight:  1,
		IsCoinbase:   true,
	})

	tx := chain.Transaction{
		Inputs:  []chain.TransactionInput{{PrevTxid: op.Txid, PrevIndex: op.Index}},
		Outputs: []chain.TransactionOutput{chain.NewP2PKHOutput(90, [20]byte{})},
	}
	// Sign with the wrong key.
	sig := keys.Sign(other.Priv, tx.Sighash())
	tx.Inputs[0].SignatureScript = chain.BuildSignatureScript(sig.Serialize(), keys.SerializePubKey(other.Pub))

	currentHeight := uint64(1) + params.CoinbaseMaturity
	_, err := validateTransaction(&tx, utxoSet, spent, currentHeight, params)
	ve, ok := err.(*ValidationError)
	if !ok || ve.Code != InvalidSignature {
		t.Fatalf("expected InvalidSignature, got %v", err)
	}
}
