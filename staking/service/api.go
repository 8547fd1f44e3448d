package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/talos-labs/staking-wallet/address"
	"github.com/talos-labs/staking-wallet/btcstaking/coredao"
	"github.com/talos-labs/staking-wallet/psbtsigner"
	"github.com/talos-labs/staking-wallet/signer"
	"github.com/talos-labs/staking-wallet/staking/store"
	"github.com/talos-labs/staking-wallet/staking/wallet"
)

const (
	apiPathPrefix   = "/v1"
	jsonContentType = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

type WalletResponse struct {
	ID             string        `json:"id"`
	OrderID        uint32        `json:"order_id"`
	UserPrincipal  hexutil.Bytes `json:"user_principal"`
	UserBTCAddress string        `json:"user_btc_address"`
	StakeTarget    string        `json:"stake_target"`
	StakeAddress   string        `json:"stake_address"`
	PubKeyHex      string        `json:"pub_key_hex"`
}

func NewWalletResponse(w *wallet.StakingWallet) *WalletResponse {
	return &WalletResponse{
		ID:             w.ID(),
		OrderID:        w.OrderID.Uint32(),
		UserPrincipal:  w.UserPrincipal,
		UserBTCAddress: w.UserBTCAddress,
		StakeTarget:    w.StakeTarget.String(),
		StakeAddress:   w.StakeAddress,
		PubKeyHex:      w.PubKeyHex,
	}
}

type TxResponse struct {
	TxType    string        `json:"tx_type"`
	TxID      string        `json:"txid"`
	TxBytes   hexutil.Bytes `json:"tx_bytes"`
	State     string        `json:"tx_state"`
	Timestamp uint64        `json:"timestamp,omitempty"`
	WalletID  hexutil.Bytes `json:"wallet_id"`
	LockTime  uint32        `json:"lock_time"`
}

func NewTxResponse(d *store.TxDetail) *TxResponse {
	return &TxResponse{
		TxType:    d.TxType.String(),
		TxID:      d.TxID,
		TxBytes:   d.TxBytes,
		State:     d.State.Status.String(),
		Timestamp: d.State.Timestamp,
		WalletID:  d.WalletID[:],
		LockTime:  d.LockTime,
	}
}

type SetTxStateRequest struct {
	State     string `json:"tx_state"`
	Timestamp uint64 `json:"timestamp"`
}

type DecodeLockTxRequest struct {
	RawTx string `json:"raw_tx"`
}

type apiError struct {
	Error string `json:"error"`
}

// handlerFunc is an http.HandlerFunc that reports failures by returning
// them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type apiServer struct {
	app    *StakingApp
	logger *zap.Logger
}

// NewAPIHandler returns the HTTP API of the app.
func NewAPIHandler(app *StakingApp, logger *zap.Logger) http.Handler {
	s := &apiServer{app: app, logger: logger}

	router := mux.NewRouter()
	sub := router.PathPrefix(apiPathPrefix).Subrouter()

	sub.Path("/health").Methods(http.MethodGet).HandlerFunc(s.wrap(s.handleHealth))

	sub.Path("/wallets").Methods(http.MethodPost).HandlerFunc(s.wrap(s.handleCreateWallet))
	sub.Path("/wallets").Methods(http.MethodGet).HandlerFunc(s.wrap(s.handleQueryWallets))
	sub.Path("/wallets/{id}").Methods(http.MethodGet).HandlerFunc(s.wrap(s.handleGetWallet))
	sub.Path("/wallets/{id}").Methods(http.MethodPut).HandlerFunc(s.wrap(s.handleUpdateWallet))
	sub.Path("/wallets/{id}").Methods(http.MethodDelete).HandlerFunc(s.wrap(s.handleRemoveWallet))
	sub.Path("/wallets/{id}/txs").Methods(http.MethodGet).HandlerFunc(s.wrap(s.handleGetWalletTxs))

	sub.Path("/coredao/lock").Methods(http.MethodPost).HandlerFunc(s.wrap(s.handleLockTx))
	sub.Path("/coredao/unlock").Methods(http.MethodPost).HandlerFunc(s.wrap(s.handleUnlockTx))
	sub.Path("/coredao/decode").Methods(http.MethodPost).HandlerFunc(s.wrap(s.handleDecodeLockTx))

	sub.Path("/txs/{txid}").Methods(http.MethodGet).HandlerFunc(s.wrap(s.handleGetTx))
	sub.Path("/txs/{txid}/state").Methods(http.MethodPut).HandlerFunc(s.wrap(s.handleSetTxState))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{logger}))(handler)
}

func (s *apiServer) wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		status := StatusCode(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("API request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("API request rejected",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		w.Header().Set("Content-Type", jsonContentType)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(&apiError{Error: err.Error()})
	}
}

// StatusCode maps an error to the HTTP status reported to API clients.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrWalletNotFound),
		errors.Is(err, store.ErrTxNotFound):
		return http.StatusNotFound

	case errors.Is(err, signer.ErrRemoteSigner),
		errors.Is(err, signer.ErrMalformedResponse),
		errors.Is(err, psbtsigner.ErrInvalidSignature):
		return http.StatusBadGateway

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUnsupportedTarget),
		errors.Is(err, address.ErrAddressParse),
		errors.Is(err, address.ErrNetworkMismatch),
		errors.Is(err, wallet.ErrUnknownStakeTarget),
		errors.Is(err, wallet.ErrInvalidWalletID),
		errors.Is(err, signer.ErrUnknownKeyID),
		errors.Is(err, coredao.ErrInvalidAmount),
		errors.Is(err, coredao.ErrInvalidTxID),
		errors.Is(err, coredao.ErrInvalidHexLength),
		errors.Is(err, coredao.ErrNoPayload),
		errors.Is(err, coredao.ErrInvalidProtocol),
		errors.Is(err, coredao.ErrPayloadTooShort),
		errors.Is(err, coredao.ErrMalformedScript),
		errors.Is(err, coredao.ErrNoLockTime),
		errors.Is(err, coredao.ErrInvalidLockTime),
		errors.Is(err, coredao.ErrNoStaker):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleCreateWallet(w http.ResponseWriter, r *http.Request) error {
	var req CreateStakingWalletRequest
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	sw, err := s.app.CreateStakingWallet(r.Context(), &req)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewWalletResponse(sw))
}

func (s *apiServer) handleQueryWallets(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	var (
		wallets []*wallet.StakingWallet
		err     error
	)
	switch {
	case query.Get("principal") != "":
		principal, decodeErr := hexutil.Decode(query.Get("principal"))
		if decodeErr != nil {
			return fmt.Errorf("%w: principal: %v", ErrInvalidRequest, decodeErr)
		}
		wallets, err = s.app.GetStakingWalletsByPrincipal(principal)
	case query.Get("btc_address") != "":
		wallets, err = s.app.GetStakingWalletsByBTCAddress(query.Get("btc_address"))
	default:
		return fmt.Errorf("%w: either principal or btc_address must be set", ErrInvalidRequest)
	}
	if err != nil {
		return err
	}

	res := make([]*WalletResponse, 0, len(wallets))
	for _, sw := range wallets {
		res = append(res, NewWalletResponse(sw))
	}

	return writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleGetWallet(w http.ResponseWriter, r *http.Request) error {
	sw, err := s.app.GetStakingWallet(mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewWalletResponse(sw))
}

func (s *apiServer) handleUpdateWallet(w http.ResponseWriter, r *http.Request) error {
	b, err := wallet.ParseWalletID(mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	var req WalletResponse
	if err := parseJSON(r, &req); err != nil {
		return err
	}
	target, err := wallet.ParseStakeTarget(req.StakeTarget)
	if err != nil {
		return err
	}

	sw := &wallet.StakingWallet{
		OrderID:        wallet.OrderIDFromUint32(req.OrderID),
		UserPrincipal:  req.UserPrincipal,
		UserBTCAddress: req.UserBTCAddress,
		StakeTarget:    target,
		StakeAddress:   req.StakeAddress,
		Bytes:          b,
		PubKeyHex:      req.PubKeyHex,
	}
	if err := s.app.UpdateStakingWallet(sw); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewWalletResponse(sw))
}

func (s *apiServer) handleRemoveWallet(w http.ResponseWriter, r *http.Request) error {
	sw, err := s.app.RemoveStakingWallet(mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewWalletResponse(sw))
}

func (s *apiServer) handleGetWalletTxs(w http.ResponseWriter, r *http.Request) error {
	txs, err := s.app.GetTxsByWalletID(mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	res := make([]*TxResponse, 0, len(txs))
	for _, d := range txs {
		res = append(res, NewTxResponse(d))
	}

	return writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleLockTx(w http.ResponseWriter, r *http.Request) error {
	var req CreateCoreDaoTxReq
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	res, err := s.app.BuildAndSignLockTx(r.Context(), &req)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleUnlockTx(w http.ResponseWriter, r *http.Request) error {
	var req CreateCoreDaoTxReq
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	res, err := s.app.BuildAndSignUnlockTx(r.Context(), &req)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleDecodeLockTx(w http.ResponseWriter, r *http.Request) error {
	var req DecodeLockTxRequest
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	res, err := s.app.DecodeLockTx(req.RawTx)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleGetTx(w http.ResponseWriter, r *http.Request) error {
	d, err := s.app.GetTx(mux.Vars(r)["txid"])
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewTxResponse(d))
}

func (s *apiServer) handleSetTxState(w http.ResponseWriter, r *http.Request) error {
	var req SetTxStateRequest
	if err := parseJSON(r, &req); err != nil {
		return err
	}
	status, err := store.ParseTxStatus(req.State)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	txid := mux.Vars(r)["txid"]
	if err := s.app.SetTxState(txid, store.TxState{Status: status, Timestamp: req.Timestamp}); err != nil {
		return err
	}

	d, err := s.app.GetTx(txid)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, NewTxResponse(d))
}

func parseJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

type recoveryLogger struct {
	logger *zap.Logger
}

func (l *recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("recovered from panic in API handler", zap.String("panic", fmt.Sprint(v...)))
}
