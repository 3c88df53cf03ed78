package domain

import "strings"

// Token is the metadata needed to convert between atomic and display amounts
// of an ERC-20 token.
type Token struct {
	Address  string
	Symbol   string
	Decimals uint32
}

// TokenRegistry resolves token metadata by contract address or symbol. It is
// built once at startup and read-only afterwards.
type TokenRegistry struct {
	byAddress map[string]Token
	bySymbol  map[string]Token
}

func NewTokenRegistry(tokens []Token) *TokenRegistry {
	byAddress := make(map[string]Token, len(tokens))
	bySymbol := make(map[string]Token, len(tokens))
	for _, t := range tokens {
		t.Address = strings.ToLower(t.Address)
		byAddress[t.Address] = t
		bySymbol[strings.ToUpper(t.Symbol)] = t
	}
	return &TokenRegistry{byAddress: byAddress, bySymbol: bySymbol}
}

// ByAddress returns the token registered at the given contract address.
func (r *TokenRegistry) ByAddress(address string) (Token, error) {
	t, ok := r.byAddress[strings.ToLower(address)]
	if !ok {
		return Token{}, ErrUnknownToken
	}
	return t, nil
}

// BySymbol returns the token registered under the given symbol.
func (r *TokenRegistry) BySymbol(symbol string) (Token, error) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	if !ok {
		return Token{}, ErrUnknownToken
	}
	return t, nil
}

// All returns every registered token.
func (r *TokenRegistry) All() []Token {
	tokens := make([]Token, 0, len(r.byAddress))
	for _, t := range r.byAddress {
		tokens = append(tokens, t)
	}
	return tokens
}
