package ethereum

import (
	"context"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Client is a read-only RPC connection. It never holds keys.
type Client struct {
	rpc *ethclient.Client
}

func Dial(rpcURL string) (*Client, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial RPC")
	}
	return &Client{rpc: rpc}, nil
}

func (c *Client) Close() { c.rpc.Close() }

// CallContract runs an eth_call against the latest block.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.rpc.CallContract(ctx, goethereum.CallMsg{To: &to, Data: data}, nil)
}
