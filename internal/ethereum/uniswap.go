package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Caller executes a read-only contract call.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// UniswapQuoter prices one whole base token in quote tokens using the V2
// router's getAmountsOut. The quote includes the pool fee and price impact
// of a one-token trade.
type UniswapQuoter struct {
	caller     Caller
	routerAddr common.Address
	path       []common.Address
	baseDec    int
	quoteDec   int
	routerABI  abi.ABI
}

func NewUniswapQuoter(caller Caller, routerAddr, baseToken, quoteToken string, baseDecimals, quoteDecimals int) (*UniswapQuoter, error) {
	for _, a := range []string{routerAddr, baseToken, quoteToken} {
		if !common.IsHexAddress(a) {
			return nil, errors.Errorf("invalid address %q", a)
		}
	}
	if baseDecimals < 0 || quoteDecimals < 0 {
		return nil, errors.New("token decimals must be >= 0")
	}
	rABI, err := abi.JSON(mustRouterABI())
	if err != nil {
		return nil, errors.Wrap(err, "parse router ABI")
	}
	return &UniswapQuoter{
		caller:     caller,
		routerAddr: common.HexToAddress(routerAddr),
		path:       []common.Address{common.HexToAddress(baseToken), common.HexToAddress(quoteToken)},
		baseDec:    baseDecimals,
		quoteDec:   quoteDecimals,
		routerABI:  rABI,
	}, nil
}

func (u *UniswapQuoter) Price(ctx context.Context) (float64, error) {
	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(u.baseDec)), nil)

	data, err := u.routerABI.Pack("getAmountsOut", amountIn, u.path)
	if err != nil {
		return 0, errors.Wrap(err, "pack getAmountsOut")
	}
	result, err := u.caller.CallContract(ctx, u.routerAddr, data)
	if err != nil {
		return 0, errors.Wrap(err, "getAmountsOut call")
	}

	out, err := u.routerABI.Unpack("getAmountsOut", result)
	if err != nil {
		return 0, errors.Wrap(err, "unpack getAmountsOut")
	}
	if len(out) != 1 {
		return 0, errors.Errorf("getAmountsOut: expected 1 output, got %d", len(out))
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok || len(amounts) != len(u.path) {
		return 0, errors.New("getAmountsOut: unexpected amounts")
	}

	quoted := amounts[len(amounts)-1]
	if quoted.Sign() <= 0 {
		return 0, errors.New("getAmountsOut: zero output, pool empty?")
	}
	price, _ := decimal.NewFromBigInt(quoted, -int32(u.quoteDec)).Float64()
	return price, nil
}
