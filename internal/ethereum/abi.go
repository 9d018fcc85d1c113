package ethereum

import (
	"io"
	"strings"
)

// Minimal ABI for the Uniswap V2 Router02 quote method.
func mustRouterABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "getAmountsOut",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "amountIn", "type": "uint256"},
				{"name": "path",     "type": "address[]"}
			],
			"outputs": [
				{"name": "amounts", "type": "uint256[]"}
			]
		}
	]`)
}
