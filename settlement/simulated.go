package settlement

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SimulatedDriver fabricates a confirmed on-chain record without talking
// to any real chain, mirroring the "simulation mode" the teacher's
// blockchain service falls back to when no real chain client is
// configured. Useful for development and tests.
type SimulatedDriver struct {
	Chain string
}

// NewSimulatedDriver builds a driver that reports every submission as
// immediately confirmed on chain.
func NewSimulatedDriver(chain string) *SimulatedDriver {
	return &SimulatedDriver{Chain: chain}
}

func (d *SimulatedDriver) Submit(_ context.Context, req Request) (OnChainRecord, error) {
	hash, err := randomHash()
	if err != nil {
		return OnChainRecord{}, err
	}
	return OnChainRecord{
		InternalTxID: req.InternalTxID,
		Chain:        d.Chain,
		TxHash:       hash,
		Status:       StatusConfirmed,
		ExplorerURL:  fmt.Sprintf("https://explorer.invalid/%s/tx/%s", d.Chain, hash),
	}, nil
}

func randomHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
