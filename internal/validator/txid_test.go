package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"deposit-service/internal/domain"
)

func TestValidate(t *testing.T) {
	evmHash := "0x" + strings.Repeat("aB", 32)
	tronHash := strings.Repeat("0f", 32)
	solSig := strings.Repeat("5", 88)

	tests := []struct {
		name    string
		network domain.Network
		txID    string
		want    bool
	}{
		{"base ok", domain.NetworkBase, evmHash, true},
		{"base missing prefix", domain.NetworkBase, strings.TrimPrefix(evmHash, "0x"), false},
		{"base too short", domain.NetworkBase, evmHash[:65], false},
		{"base trailing garbage", domain.NetworkBase, evmHash + "00", false},
		{"base non hex", domain.NetworkBase, "0x" + strings.Repeat("zz", 32), false},
		{"base embedded in text", domain.NetworkBase, "tx " + evmHash, false},

		{"solana 88", domain.NetworkSolana, solSig, true},
		{"solana 87", domain.NetworkSolana, solSig[:87], true},
		{"solana 86", domain.NetworkSolana, solSig[:86], false},
		{"solana 89", domain.NetworkSolana, solSig + "5", false},
		{"solana zero is not base58", domain.NetworkSolana, strings.Repeat("0", 88), false},
		{"solana capital O is not base58", domain.NetworkSolana, strings.Repeat("O", 88), false},
		{"solana lowercase l is not base58", domain.NetworkSolana, strings.Repeat("l", 88), false},

		{"tron ok", domain.NetworkTron, tronHash, true},
		{"tron with 0x", domain.NetworkTron, "0x" + tronHash, false},
		{"tron short", domain.NetworkTron, tronHash[:63], false},

		{"evm hash on tron", domain.NetworkTron, evmHash, false},
		{"unknown network", domain.Network("BTC"), tronHash, false},
		{"empty", domain.NetworkBase, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.network, tt.txID))
		})
	}
}

func TestPatternsCoverEveryNetwork(t *testing.T) {
	p := Patterns()
	for _, n := range domain.SupportedNetworks {
		assert.NotEmpty(t, p[n], "network %s", n)
	}
	assert.Equal(t, PatternBase, p[domain.NetworkBase])
}
