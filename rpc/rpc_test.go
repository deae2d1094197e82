package rpc_test

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"

	"github.com/agglayer/miden-evm-gateway/internal/accountscfg"
	"github.com/agglayer/miden-evm-gateway/internal/blocknum"
	"github.com/agglayer/miden-evm-gateway/internal/claim"
	"github.com/agglayer/miden-evm-gateway/internal/gateway"
	"github.com/agglayer/miden-evm-gateway/internal/ger"
	"github.com/agglayer/miden-evm-gateway/internal/nativeclient"
	"github.com/agglayer/miden-evm-gateway/internal/txnmanager"
	"github.com/agglayer/miden-evm-gateway/rpc"
)

const testChainID = 2

type fakeActor struct {
	client nativeclient.Client
}

func (a *fakeActor) With(ctx context.Context, fn func(context.Context, nativeclient.Client) (any, error)) (any, error) {
	return fn(ctx, a.client)
}

type stubKeystore struct{}

func (stubKeystore) AddFalcon512Key(context.Context, nativeclient.AccountID) error { return nil }

type stubClient struct{}

func (c *stubClient) CreateAccount(context.Context, nativeclient.CreateAccountRequest) (nativeclient.AccountID, error) {
	return nativeclient.AccountID{}, nil
}

func (c *stubClient) SubmitTransaction(context.Context, nativeclient.AccountID, nativeclient.TransactionRequest) (nativeclient.TransactionID, error) {
	return nativeclient.TransactionID("native-1"), nil
}

func (c *stubClient) SyncState(context.Context) (nativeclient.SyncSummary, error) {
	return nativeclient.SyncSummary{}, nil
}

func (c *stubClient) Keystore() nativeclient.Keystore { return stubKeystore{} }

func (c *stubClient) Close() error { return nil }

func newTestGateway() (*gateway.Gateway, *txnmanager.Manager, *blocknum.Tracker) {
	actor := &fakeActor{client: &stubClient{}}
	txns := txnmanager.New(log.NewNopLogger())
	blocks := blocknum.New()
	gerSlot := ger.NewSlot()
	cfg := &accountscfg.Config{
		FaucetEth: accountscfg.AccountID{0xaa},
		FaucetAgg: accountscfg.AccountID{0xbb},
	}
	gw := gateway.New(actor, txns, blocks, gerSlot, cfg, testChainID, log.NewNopLogger())
	return gw, txns, blocks
}

func claimCalldata(t *testing.T, destination common.Address) []byte {
	t.Helper()
	fortyTwoEth := new(big.Int).Mul(big.NewInt(42), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	packed, err := claim.ABI.Methods["claimAsset"].Inputs.Pack(
		[32][32]byte{},
		[32][32]byte{},
		big.NewInt(7),
		[32]byte{0x01},
		[32]byte{0x02},
		uint32(0),
		common.Address{},
		uint32(1),
		destination,
		fortyTwoEth,
		[]byte{0xde, 0xad, 0xbe, 0xef},
	)
	require.NoError(t, err)
	return packed
}

func signedTx(t *testing.T, to common.Address, data []byte) *types.Transaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	inner := &types.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	}
	signer := types.LatestSignerForChainID(big.NewInt(testChainID))
	tx, err := types.SignNewTx(key, signer, inner)
	require.NoError(t, err)
	return tx
}

func rawHex(t *testing.T, tx *types.Transaction) string {
	t.Helper()
	data, err := tx.MarshalBinary()
	require.NoError(t, err)
	return "0x" + common.Bytes2Hex(data)
}

func req(method string, params any) rpc.Request {
	var raw json.RawMessage
	if params != nil {
		b, _ := json.Marshal(params)
		raw = b
	}
	return rpc.Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: method, Params: raw}
}

func result(t *testing.T, resp rpc.Response, out any) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error response: %+v", resp.Error)
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

func TestDispatchConstantResponses(t *testing.T) {
	gw, _, _ := newTestGateway()

	resp := rpc.Dispatch(context.Background(), gw, req("eth_getCode", nil))
	var code string
	result(t, resp, &code)
	require.Equal(t, "0x00", code)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_gasPrice", nil))
	var gasPrice string
	result(t, resp, &gasPrice)
	require.Equal(t, "0x0", gasPrice)
}

func TestDispatchChainIDAndNetVersion(t *testing.T) {
	gw, _, _ := newTestGateway()

	resp := rpc.Dispatch(context.Background(), gw, req("eth_chainId", nil))
	var chainID string
	result(t, resp, &chainID)
	require.Equal(t, "0x2", chainID)

	resp = rpc.Dispatch(context.Background(), gw, req("net_version", nil))
	var version string
	result(t, resp, &version)
	require.Equal(t, "2", version)
}

func TestDispatchBlockNumberReflectsTracker(t *testing.T) {
	gw, _, blocks := newTestGateway()
	blocks.OnSync(nativeclient.SyncSummary{BlockNum: 9})

	resp := rpc.Dispatch(context.Background(), gw, req("eth_blockNumber", nil))
	var blockNum string
	result(t, resp, &blockNum)
	require.Equal(t, "0x9", blockNum)
}

func TestDispatchGetBlockByNumberLatestAndExplicit(t *testing.T) {
	gw, _, blocks := newTestGateway()
	blocks.OnSync(nativeclient.SyncSummary{BlockNum: 3})

	resp := rpc.Dispatch(context.Background(), gw, req("eth_getBlockByNumber", [2]any{"latest", false}))
	var header struct {
		Number        string `json:"number"`
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	result(t, resp, &header)
	require.Equal(t, "0x3", header.Number)
	require.Equal(t, "0x0", header.BaseFeePerGas)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getBlockByNumber", [2]any{"0x1", false}))
	result(t, resp, &header)
	require.Equal(t, "0x1", header.Number)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getBlockByNumber", [2]any{"not-hex", false}))
	require.NotNil(t, resp.Error)
}

func TestDispatchCallNetworkIDSelector(t *testing.T) {
	gw, _, _ := newTestGateway()

	networkIDSelector := crypto.Keccak256([]byte("networkID()"))[:4]
	resp := rpc.Dispatch(context.Background(), gw, req("eth_call", [2]any{
		map[string]string{"data": "0x" + common.Bytes2Hex(networkIDSelector)},
		"latest",
	}))
	var out string
	result(t, resp, &out)
	require.Equal(t, 66, len(out))
	require.Equal(t, "0x", out[:2])

	resp = rpc.Dispatch(context.Background(), gw, req("eth_call", [2]any{
		map[string]string{"data": "0xdeadbeef"},
		"latest",
	}))
	result(t, resp, &out)
	require.Equal(t, "0x"+common.Bytes2Hex(make([]byte, 32)), out)
}

func TestDispatchSendRawTransactionAndReceiptRoundTrip(t *testing.T) {
	gw, txns, blocks := newTestGateway()

	destination := common.HexToAddress("0x00000000003d7c9747558851900f8206226dfbea")
	to := common.HexToAddress("0x0000000000000000000000000000000000aaaa")
	calldata := append(append([]byte{}, claim.Selector()...), claimCalldata(t, destination)...)
	tx := signedTx(t, to, calldata)

	resp := rpc.Dispatch(context.Background(), gw, req("eth_sendRawTransaction", [1]string{rawHex(t, tx)}))
	var hash string
	result(t, resp, &hash)
	require.Equal(t, tx.Hash().Hex(), hash)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getTransactionByHash", [1]string{hash}))
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getTransactionReceipt", [1]string{hash}))
	var receiptResult json.RawMessage
	require.Nil(t, resp.Error)
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	receiptResult = b
	require.Equal(t, "null", string(receiptResult), "claim should remain pending until a sync commits it")

	blocks.OnSync(nativeclient.SyncSummary{BlockNum: 5, CommittedTxnIDs: []nativeclient.TransactionID{"native-1"}})
	txns.OnSync(nativeclient.SyncSummary{BlockNum: 5, CommittedTxnIDs: []nativeclient.TransactionID{"native-1"}})

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getTransactionReceipt", [1]string{hash}))
	var receipt struct {
		Status bool `json:"Status"`
	}
	result(t, resp, &receipt)
	require.True(t, receipt.Status)
}

func TestDispatchMalformedTransactionHashIsDecodeError(t *testing.T) {
	gw, _, _ := newTestGateway()

	resp := rpc.Dispatch(context.Background(), gw, req("eth_getTransactionReceipt", [1]string{"not-a-hash"}))
	require.NotNil(t, resp.Error)
	require.Equal(t, 2, resp.Error.Code)

	resp = rpc.Dispatch(context.Background(), gw, req("eth_getTransactionByHash", [1]string{"0xdead"}))
	require.NotNil(t, resp.Error)
	require.Equal(t, 2, resp.Error.Code)
}

func TestDispatchGetLogsReturnsEmptySliceNotNull(t *testing.T) {
	gw, _, _ := newTestGateway()

	resp := rpc.Dispatch(context.Background(), gw, req("eth_getLogs", [1]map[string]any{
		{"fromBlock": "0x0", "toBlock": "latest", "topics": []string{}},
	}))
	require.Nil(t, resp.Error)
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.Equal(t, "[]", string(b))
}

func TestDispatchUnknownMethod(t *testing.T) {
	gw, _, _ := newTestGateway()

	resp := rpc.Dispatch(context.Background(), gw, req("eth_unknownMethod", nil))
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}
