package service_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/talos-labs/staking-wallet/address"
	"github.com/talos-labs/staking-wallet/btcstaking/coredao"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/staking/service"
	"github.com/talos-labs/staking-wallet/staking/store"
	"github.com/talos-labs/staking-wallet/staking/wallet"
	"github.com/talos-labs/staking-wallet/testutil"
)

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body, out interface{}) int {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func TestAPIWalletLifecycle(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(20))
	app, _ := newTestApp(t, newLocalSigner(t))
	srv := httptest.NewServer(service.NewAPIHandler(app, testutil.GetTestLogger(t)))
	defer srv.Close()

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/v1/health", nil, nil))

	principal := testutil.GenRandomPrincipal(r)
	var created service.WalletResponse
	status := doJSON(t, srv, http.MethodPost, "/v1/wallets", &service.CreateStakingWalletRequest{
		OrderID:        42,
		UserPrincipal:  principal,
		UserBTCAddress: testnetUserAddress,
		StakeTarget:    "coredao",
	}, &created)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, uint32(42), created.OrderID)
	require.Equal(t, "coredao", created.StakeTarget)

	var fetched service.WalletResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/v1/wallets/"+created.ID, nil, &fetched))
	require.Equal(t, created, fetched)

	var byPrincipal []*service.WalletResponse
	status = doJSON(t, srv, http.MethodGet, "/v1/wallets?principal="+hexutil.Encode(principal), nil, &byPrincipal)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, byPrincipal, 1)
	require.Equal(t, created.ID, byPrincipal[0].ID)

	require.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/wallets", nil, nil))

	update := created
	update.UserBTCAddress = "tb1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3q0sl5k7"
	var updated service.WalletResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPut, "/v1/wallets/"+created.ID, &update, &updated))
	require.Equal(t, update.UserBTCAddress, updated.UserBTCAddress)

	var byAddress []*service.WalletResponse
	status = doJSON(t, srv, http.MethodGet, "/v1/wallets?btc_address="+testnetUserAddress, nil, &byAddress)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, byAddress)

	var txs []*service.TxResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/v1/wallets/"+created.ID+"/txs", nil, &txs))
	require.Empty(t, txs)

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodDelete, "/v1/wallets/"+created.ID, nil, nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/v1/wallets/"+created.ID, nil, nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodPut, "/v1/wallets/"+created.ID, &update, nil))
	require.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/wallets/nothex", nil, nil))
}

func TestAPICoreDaoLock(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(21))
	app, _ := newTestApp(t, newLocalSigner(t))
	srv := httptest.NewServer(service.NewAPIHandler(app, testutil.GetTestLogger(t)))
	defer srv.Close()

	w := createWallet(t, app, r, wallet.StakeTargetCoreDao)
	req := newLockRequest(r, w)

	var res service.CreateCoreDaoTxRes
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/v1/coredao/lock", req, &res))
	require.NotNil(t, res.SignedTxUnlock)
	require.NotEmpty(t, res.RedeemScript)

	var decoded service.DecodedLockTx
	status := doJSON(t, srv, http.MethodPost, "/v1/coredao/decode",
		&service.DecodeLockTxRequest{RawTx: res.SignedTxCommit.TxHex}, &decoded)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, uint32(testLockTime), decoded.LockTime)

	var detail service.TxResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/v1/txs/"+res.SignedTxCommit.TxID, nil, &detail))
	require.Equal(t, "lock", detail.TxType)
	require.Equal(t, "stashed", detail.State)

	status = doJSON(t, srv, http.MethodPut, "/v1/txs/"+res.SignedTxCommit.TxID+"/state",
		&service.SetTxStateRequest{State: "pending", Timestamp: 1000}, &detail)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "pending", detail.State)
	require.Equal(t, uint64(1000), detail.Timestamp)

	status = doJSON(t, srv, http.MethodPut, "/v1/txs/"+res.SignedTxCommit.TxID+"/state",
		&service.SetTxStateRequest{State: "lost"}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	require.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/v1/txs/"+testutil.GenRandomTxID(r), nil, nil))

	status = doJSON(t, srv, http.MethodPost, "/v1/coredao/decode", &service.DecodeLockTxRequest{RawTx: "00"}, nil)
	require.Equal(t, http.StatusBadRequest, status)

	// unknown fields are rejected
	status = doJSON(t, srv, http.MethodPost, "/v1/coredao/lock", map[string]interface{}{"wallet": w.ID()}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", store.ErrWalletNotFound), http.StatusNotFound},
		{store.ErrTxNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: unavailable", signer.ErrRemoteSigner), http.StatusBadGateway},
		{signer.ErrMalformedResponse, http.StatusBadGateway},
		{address.ErrNetworkMismatch, http.StatusBadRequest},
		{service.ErrUnsupportedTarget, http.StatusBadRequest},
		{signer.ErrUnknownKeyID, http.StatusBadRequest},
		{fmt.Errorf("%w: 16", coredao.ErrInvalidLockTime), http.StatusBadRequest},
		{fmt.Errorf("%w: mismatch", service.ErrInvalidRequest), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, service.StatusCode(tc.err), tc.err.Error())
	}
}
