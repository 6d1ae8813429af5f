package powtarget

import (
	"testing"

	"archivalnode/chain"
	"archivalnode/encoding"
)

func newTemplate(nbits uint32) *Template {
	var recipient [20]byte
	recipient[0] = 0x07
	cb := chain.CreateCoinbase(1, 50_0000_0000, recipient, 0)
	return &Template{
		Height:      1,
		PrevHash:    encoding.ZeroHash,
		Timestamp:   1231006506,
		NBits:       nbits,
		Coinbase:    cb,
		RecipientH:  recipient,
		BlockReward: 50_0000_0000,
	}
}

func TestMineProducesBlockMeetingTarget(t *testing.T) {
	// An easy target so the search terminates quickly in a test.
	tmpl := newTemplate(0x207fffff)
	block := Mine(tmpl)

	if !MeetsDifficultyTarget(block.Header.Hash(), tmpl.NBits) {
		t.Fatalf("mined block does not meet its own target")
	}
	if block.Header.MerkleRoot != block.MerkleRoot() {
		t.Fatalf("merkle root does not match assembled transactions")
	}
}

func TestInstantMineBypassesTarget(t *testing.T) {
	// A target so hard that a real search would never finish in a test;
	// InstantMine must still return immediately with nonce 0.
	tmpl := newTemplate(0x03000001)
	block := InstantMine(tmpl)

	if block.Header.Nonce != 0 {
		t.Fatalf("expected instant-mined block to carry nonce 0, got %d", block.Header.Nonce)
	}
	if MeetsDifficultyTarget(block.Header.Hash(), tmpl.NBits) {
		t.Fatalf("did not expect an instant-mined block to satisfy a near-impossible target")
	}
}

func TestMineRerollsExtraNonceOnExhaustion(t *testing.T) {
	tmpl := newTemplate(0x207fffff)
	originalCoinbaseTxid := tmpl.Coinbase.Txid()

	tmpl.rerollExtraNonce()
	if tmpl.ExtraNonce != 1 {
		t.Fatalf("expected extra_nonce to increment to 1, got %d", tmpl.ExtraNonce)
	}
	if tmpl.Coinbase.Txid() == originalCoinbaseTxid {
		t.Fatalf("expected coinbase txid to change after extra_nonce reroll")
	}
}
