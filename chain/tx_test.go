package chain

import (
	"testing"

	"archivalnode/encoding"
)

func sampleOutput() TransactionOutput {
	var h [20]byte
	h[0] = 0xAB
	return NewP2PKHOutput(5000, h)
}

func TestTransactionSerializeRoundTrip(t *testing.T) {
	tx := Transaction{
		Version: 1,
		Inputs: []TransactionInput{{
			PrevTxid:        encoding.DoubleSHA256([]byte("prev")),
			PrevIndex:       2,
			SignatureScript: []byte("aabbcc" + "010203040506070809101112131415161718192021222324"),
			Sequence:        0xffffffff,
		}},
		Outputs:  []TransactionOutput{sampleOutput()},
		Locktime: 0,
	}

	serialized := tx.Serialize()
	got, consumed, err := DeserializeTransaction(serialized)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed != len(serialized) {
		t.Fatalf("expected to consume entire buffer: got %d want %d", consumed, len(serialized))
	}
	if got.Version != tx.Version || got.Locktime != tx.Locktime {
		t.Fatalf("round-trip mismatch in scalar fields")
	}
	if len(got.Inputs) != 1 || got.Inputs[0].PrevIndex != 2 {
		t.Fatalf("round-trip mismatch in inputs")
	}
	if len(got.Outputs) != 1 || got.Outputs[0].Value != 5000 {
		t.Fatalf("round-trip mismatch in outputs")
	}
}

func TestIsCoinbase(t *testing.T) {
	var recipient [20]byte
	cb := CreateCoinbase(1, 50_0000_0000, recipient, 0)
	if !cb.IsCoinbase() {
		t.Fatalf("expected coinbase transaction to report IsCoinbase")
	}

	notCoinbase := Transaction{
		Inputs:  []TransactionInput{{PrevTxid: encoding.DoubleSHA256([]byte("x")), PrevIndex: 0}},
		Outputs: []TransactionOutput{sampleOutput()},
	}
	if notCoinbase.IsCoinbase() {
		t.Fatalf("did not expect ordinary transaction to report IsCoinbase")
	}
}

func TestCoinbaseExtraNonceChangesTxid(t *testing.T) {
	var recipient [20]byte
	a := CreateCoinbase(10, 100, recipient, 0)
	b := CreateCoinbase(10, 100, recipient, 1)
	if a.Txid() == b.Txid() {
		t.Fatalf("expected different extra_nonce to produce different txid")
	}
}

func TestSplitAndBuildSignatureScript(t *testing.T) {
	sig := make([]byte, 70)
	for i := range sig {
		sig[i] = byte(i)
	}
	pub := make([]byte, 33)
	for i := range pub {
		pub[i] = byte(0xA0 + i%16)
	}
	script := BuildSignatureScript(sig, pub)
	sigHex, pubHex, err := SplitSignatureScript(script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pubHex) != CompressedPubKeyHexLen {
		t.Fatalf("pubkey hex length mismatch: got %d", len(pubHex))
	}
	if sigHex+pubHex != string(script) {
		t.Fatalf("split halves did not reconstruct original script")
	}
}

func TestSighashIgnoresSignatureScriptContent(t *testing.T) {
	base := Transaction{
		Version: 1,
		Inputs: []TransactionInput{{
			PrevTxid:  encoding.DoubleSHA256([]byte("prev")),
			PrevIndex: 0,
			Sequence:  0xffffffff,
		}},
		Outputs: []TransactionOutput{sampleOutput()},
	}
	withScript := base
	withScript.Inputs = []TransactionInput{base.Inputs[0]}
	withScript.Inputs[0].SignatureScript = []byte("deadbeef")

	if base.Sighash() != withScript.Sighash() {
		t.Fatalf("expected sighash to be independent of signature_script content")
	}
	// sanity: the two transactions really do differ at the wire level
	if base.Txid() == withScript.Txid() {
		t.Fatalf("expected differing signature_script to change txid")
	}
}

func TestSighashChangesWithOutputs(t *testing.T) {
	a := Transaction{Inputs: []TransactionInput{{PrevIndex: 0}}, Outputs: []TransactionOutput{sampleOutput()}}
	b := a
	b.Outputs = []TransactionOutput{{Value: a.Outputs[0].Value + 1, PubKeyScript: a.Outputs[0].PubKeyScript}}
	if a.Sighash() == b.Sighash() {
		t.Fatalf("expected differing outputs to change sighash")
	}
}

func TestTxidChangesWithContent(t *testing.T) {
	a := Transaction{Version: 1, Inputs: []TransactionInput{{PrevIndex: 0}}, Outputs: []TransactionOutput{sampleOutput()}}
	b := a
	b.Locktime = 1
	if a.Txid() == b.Txid() {
		t.Fatalf("expected locktime change to change txid")
	}
}
