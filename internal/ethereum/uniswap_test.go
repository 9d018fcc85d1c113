package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	router = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
	weth   = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	usdc   = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

type fakeCaller struct {
	t        *testing.T
	abi      abi.ABI
	amounts  []*big.Int
	err      error
	lastTo   common.Address
	lastIn   *big.Int
	lastPath []common.Address
}

func (f *fakeCaller) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTo = to

	m := f.abi.Methods["getAmountsOut"]
	require.Equal(f.t, m.ID, data[:4])
	args, err := m.Inputs.Unpack(data[4:])
	require.NoError(f.t, err)
	f.lastIn = args[0].(*big.Int)
	f.lastPath = args[1].([]common.Address)

	return m.Outputs.Pack(f.amounts)
}

func newFake(t *testing.T, amounts ...*big.Int) *fakeCaller {
	a, err := abi.JSON(mustRouterABI())
	require.NoError(t, err)
	return &fakeCaller{t: t, abi: a, amounts: amounts}
}

func TestUniswapQuoter_Price(t *testing.T) {
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	fake := newFake(t, oneEth, big.NewInt(2_650_420_000)) // 2650.42 USDC

	q, err := NewUniswapQuoter(fake, router, weth, usdc, 18, 6)
	require.NoError(t, err)

	price, err := q.Price(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2650.42, price, 1e-9)

	assert.Equal(t, common.HexToAddress(router), fake.lastTo)
	assert.Equal(t, 0, fake.lastIn.Cmp(oneEth), "quotes one whole base token")
	assert.Equal(t, []common.Address{common.HexToAddress(weth), common.HexToAddress(usdc)}, fake.lastPath)
}

func TestUniswapQuoter_Errors(t *testing.T) {
	_, err := NewUniswapQuoter(newFake(t), "nope", weth, usdc, 18, 6)
	assert.Error(t, err)

	fake := newFake(t, big.NewInt(1), big.NewInt(0))
	q, err := NewUniswapQuoter(fake, router, weth, usdc, 18, 6)
	require.NoError(t, err)
	_, err = q.Price(context.Background())
	assert.ErrorContains(t, err, "zero output")

	fake.err = errors.New("rpc down")
	_, err = q.Price(context.Background())
	assert.ErrorContains(t, err, "rpc down")
}
