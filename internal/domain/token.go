// internal/domain/token.go
package domain

import "fmt"

// Token is a supported stablecoin
type Token string

const (
	TokenUSDT Token = "USDT"
	TokenUSDC Token = "USDC"
)

// StablecoinDecimals is the on-chain precision of USDT and USDC on every
// supported network.
const StablecoinDecimals int32 = 6

// TokenContracts holds the stablecoin contract (or mint) addresses of one network
type TokenContracts struct {
	USDT string
	USDC string
}

// DefaultTokenContracts are the mainnet contracts
var DefaultTokenContracts = map[Network]TokenContracts{
	NetworkBase: {
		USDT: "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
		USDC: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	},
	NetworkSolana: {
		USDT: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
		USDC: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	},
	NetworkTron: {
		USDT: "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		USDC: "TEkxiTehnzSmSe2XqrBj4w32RUN966rdz8",
	},
}

// TokenRegistry classifies contract addresses per network
type TokenRegistry struct {
	contracts map[Network]TokenContracts
}

// NewTokenRegistry builds a registry from the defaults, with any non-empty
// override replacing the default address for its network and token.
func NewTokenRegistry(overrides map[Network]TokenContracts) *TokenRegistry {
	contracts := make(map[Network]TokenContracts, len(DefaultTokenContracts))
	for n, c := range DefaultTokenContracts {
		if o, ok := overrides[n]; ok {
			if o.USDT != "" {
				c.USDT = o.USDT
			}
			if o.USDC != "" {
				c.USDC = o.USDC
			}
		}
		contracts[n] = c
	}
	return &TokenRegistry{contracts: contracts}
}

// Contracts returns the registered contracts for network
func (r *TokenRegistry) Contracts(network Network) (TokenContracts, error) {
	c, ok := r.contracts[network]
	if !ok {
		return TokenContracts{}, fmt.Errorf("no token contracts for network %s", network)
	}
	return c, nil
}

// Classify maps a contract address to its token. The comparison follows
// the network's address rules.
func (r *TokenRegistry) Classify(network Network, contract string) (Token, bool) {
	c, ok := r.contracts[network]
	if !ok {
		return "", false
	}
	switch {
	case network.AddressesEqual(contract, c.USDT):
		return TokenUSDT, true
	case network.AddressesEqual(contract, c.USDC):
		return TokenUSDC, true
	}
	return "", false
}
