// Package rpc hand-dispatches the fixed JSON-RPC 2.0 method table the
// coordinator's Ethereum-client tooling needs, synthesizing responses
// for methods this gateway doesn't implement a real execution layer for
// and translating the two methods that do real work
// (eth_sendRawTransaction, eth_getTransactionReceipt) through
// internal/gateway.
package rpc

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/agglayer/miden-evm-gateway/internal/gateway"
	"github.com/agglayer/miden-evm-gateway/internal/hexcodec"
)

//go:embed abi.json
var abiJSON string

// networkIDABI is the bridge contract's networkID() getter, the one
// eth_call selector this gateway special-cases.
var networkIDABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("rpc: parse abi.json: %v", err))
	}
	networkIDABI = parsed
}

// Request is a JSON-RPC 2.0 request object.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is a JSON-RPC 2.0 response object. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// MarshalJSON encodes r with exactly one of "result" or "error"; a nil
// Result is written as an explicit JSON null.
func (r Response) MarshalJSON() ([]byte, error) {
	type envelope struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  *any            `json:"result,omitempty"`
		Error   *Error          `json:"error,omitempty"`
	}
	e := envelope{JSONRPC: r.JSONRPC, ID: r.ID, Error: r.Error}
	if r.Error == nil {
		e.Result = &r.Result
	}
	return json.Marshal(e)
}

// Application error codes, per the gateway's decode/translation/manager
// error taxonomy.
const (
	errDecodeHex           = 1
	errDecodeReceiptLookup = 2
	errDecodeCallData      = 3
	errDecodeBlockNumber   = 4
	errMethodNotFound      = -32601
	errInvalidParams       = -32602
)

func success(req Request, result any) Response {
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(req Request, code int, message string) Response {
	return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: code, Message: message}}
}

func parseParams(req Request, out any) error {
	if len(req.Params) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params, out)
}

// header is the subset of an Ethereum block header this gateway ever
// populates; no other header field is included in the response.
type header struct {
	Number        string `json:"number"`
	BaseFeePerGas string `json:"baseFeePerGas"`
}

// Dispatch routes req to its handler and returns a JSON-RPC response.
// It never panics on a malformed request: malformed params surface as a
// JSON-RPC error response.
func Dispatch(ctx context.Context, gw *gateway.Gateway, req Request) Response {
	switch req.Method {
	case "eth_getCode":
		return success(req, "0x00")

	case "eth_getBalance", "eth_getTransactionCount", "eth_gasPrice",
		"eth_maxPriorityFeePerGas", "eth_estimateGas", "eth_getBlockTransactionCountByNumber":
		return success(req, "0x0")

	case "eth_getStorageAt":
		return success(req, "0x"+strings.Repeat("0", 64))

	case "eth_chainId":
		return success(req, hexcodec.EncodeQuantity(gw.ChainID()))

	case "net_version":
		return success(req, fmt.Sprintf("%d", gw.ChainID()))

	case "eth_blockNumber":
		return success(req, hexcodec.EncodeQuantity(gw.BlockNumber()))

	case "eth_getBlockByNumber":
		return dispatchGetBlockByNumber(gw, req)

	case "eth_getBlockByHash":
		return success(req, header{BaseFeePerGas: "0x0"})

	case "eth_call":
		return dispatchCall(gw, req)

	case "eth_sendRawTransaction":
		return dispatchSendRawTransaction(ctx, gw, req)

	case "eth_getTransactionReceipt":
		return dispatchGetTransactionReceipt(gw, req)

	case "eth_getTransactionByHash":
		return dispatchGetTransactionByHash(gw, req)

	case "eth_getLogs":
		return dispatchGetLogs(gw, req)

	default:
		return errorResponse(req, errMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func dispatchGetBlockByNumber(gw *gateway.Gateway, req Request) Response {
	var params [2]json.RawMessage
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad params")
	}
	var tag string
	if err := json.Unmarshal(params[0], &tag); err != nil {
		return errorResponse(req, errInvalidParams, "bad block number")
	}

	blockNum := gw.BlockNumber()
	if tag != "latest" {
		n, err := hexcodec.DecodeQuantity(tag)
		if err != nil {
			return errorResponse(req, errDecodeBlockNumber, "bad block number")
		}
		blockNum = n
	}
	return success(req, header{Number: hexcodec.EncodeQuantity(blockNum), BaseFeePerGas: "0x0"})
}

func dispatchCall(gw *gateway.Gateway, req Request) Response {
	var params [2]json.RawMessage
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad params")
	}
	var txn struct {
		Data  string `json:"data"`
		Input string `json:"input"`
	}
	if err := json.Unmarshal(params[0], &txn); err != nil {
		return errorResponse(req, errInvalidParams, "bad transaction params")
	}

	dataHex := txn.Data
	if dataHex == "" {
		dataHex = txn.Input
	}
	if dataHex != "" {
		data, err := hexcodec.DecodePrefixed(dataHex)
		if err != nil {
			return errorResponse(req, errDecodeCallData, "bad transaction.data")
		}
		if len(data) >= 4 && bytes.Equal(data[:4], networkIDABI.Methods["networkID"].ID) {
			return success(req, fmt.Sprintf("0x%064x", gw.ChainID()))
		}
	}
	return success(req, "0x"+strings.Repeat("0", 64))
}

func dispatchSendRawTransaction(ctx context.Context, gw *gateway.Gateway, req Request) Response {
	var params [1]string
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad params")
	}
	hash, err := gw.SendRawTransaction(ctx, params[0])
	if err != nil {
		return errorResponse(req, errDecodeHex, err.Error())
	}
	return success(req, hash.Hex())
}

// decodeTxnHash validates that s is a well-formed 32-byte 0x-prefixed
// hash, unlike common.HexToHash, which silently zero-pads or truncates
// malformed input instead of erroring.
func decodeTxnHash(s string) (common.Hash, error) {
	b, err := hexcodec.DecodePrefixed(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("malformed transaction hash")
	}
	return common.BytesToHash(b), nil
}

func dispatchGetTransactionReceipt(gw *gateway.Gateway, req Request) Response {
	var params [1]string
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad params")
	}
	hash, err := decodeTxnHash(params[0])
	if err != nil {
		return errorResponse(req, errDecodeReceiptLookup, "bad transaction hash")
	}
	receipt, ok := gw.TransactionReceipt(hash)
	if !ok {
		return success(req, nil)
	}
	return success(req, receipt)
}

func dispatchGetTransactionByHash(gw *gateway.Gateway, req Request) Response {
	var params [1]string
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad params")
	}
	hash, err := decodeTxnHash(params[0])
	if err != nil {
		return errorResponse(req, errDecodeReceiptLookup, "bad transaction hash")
	}
	tx, _, ok := gw.Transaction(hash)
	if !ok {
		return success(req, nil)
	}
	return success(req, tx)
}

// logFilterParams is the wire shape of an eth_getLogs filter object. Only
// block range and a flat topic list are accepted; FilterQuery's
// address/per-position topic-alternatives are not, since this gateway
// never attaches more than one topic per log position.
type logFilterParams struct {
	FromBlock string        `json:"fromBlock"`
	ToBlock   string        `json:"toBlock"`
	Topics    []common.Hash `json:"topics"`
}

func (p logFilterParams) toQuery() (ethereum.FilterQuery, error) {
	var query ethereum.FilterQuery
	if p.FromBlock != "" && p.FromBlock != "latest" {
		n, err := hexcodec.DecodeQuantity(p.FromBlock)
		if err != nil {
			return ethereum.FilterQuery{}, fmt.Errorf("bad fromBlock: %w", err)
		}
		query.FromBlock = new(big.Int).SetUint64(n)
	}
	if p.ToBlock != "" && p.ToBlock != "latest" {
		n, err := hexcodec.DecodeQuantity(p.ToBlock)
		if err != nil {
			return ethereum.FilterQuery{}, fmt.Errorf("bad toBlock: %w", err)
		}
		query.ToBlock = new(big.Int).SetUint64(n)
	}
	for _, topic := range p.Topics {
		query.Topics = append(query.Topics, []common.Hash{topic})
	}
	return query, nil
}

func dispatchGetLogs(gw *gateway.Gateway, req Request) Response {
	var params [1]logFilterParams
	if err := parseParams(req, &params); err != nil {
		return errorResponse(req, errInvalidParams, "bad filter")
	}
	query, err := params[0].toQuery()
	if err != nil {
		return errorResponse(req, errInvalidParams, err.Error())
	}

	logs := gw.Logs(query)
	if logs == nil {
		logs = []*types.Log{}
	}
	return success(req, logs)
}
