package ports

import (
	"context"
	"encoding/json"

	"github.com/openswap-network/maker-daemon/pkg/jsonrpc"
)

// Decrypter decrypts armored message payloads addressed to this peer.
type Decrypter interface {
	Decrypt(armored string) ([]byte, error)
}

// PeerCaller delivers a message to a peer identity on the relay network.
// Correlation with any previous request is carried solely by the message id.
type PeerCaller interface {
	Call(ctx context.Context, peer string, msg *jsonrpc.Message) error
}

// PeerRequester performs an outbound RPC against a peer and waits for the
// correlated response.
type PeerRequester interface {
	Request(
		ctx context.Context, peer, method string, params interface{},
	) (json.RawMessage, error)
}
