package web

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainexplorer/internal/config"
	"chainexplorer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	blockHash  = "0x88e96d4537bea4d9c05d12549907b32561d3bf31f45aae734cdc119f13406cb6"
	txHash     = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"
	absentHash = "0x0000000000000000000000000000000000000000000000000000000000000001"
	miner      = "0x52908400098527886E0F7030069857D2E4169EE7"
	sender     = "0x00000000000000000000000000000000000a11ce"
	contract   = "0x00000000000000000000000000000000000c0de0"
)

type stubExplorer struct {
	err   error
	calls int
	count int

	// legacyReceipt serves a receipt without a status field.
	legacyReceipt bool
}

func (s *stubExplorer) LatestBlocks(ctx context.Context, count int) ([]domain.Block, error) {
	s.calls++
	s.count = count
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Block{{Hash: blockHash, Number: 436, Miner: miner, Timestamp: 1_700_000_000}}, nil
}

func (s *stubExplorer) BlockWithTransactions(ctx context.Context, hash string) (*domain.Block, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	to := miner
	return &domain.Block{
		Hash:      hash,
		Number:    436,
		Miner:     miner,
		Timestamp: 1_700_000_000,
		GasUsed:   21000,
		GasLimit:  30_000_000,
		BaseFee:   big.NewInt(1_000_000_000),
		Size:      544,
		Transactions: []domain.Transaction{
			{Hash: txHash, From: sender, To: &to, Value: big.NewInt(1_500_000_000_000_000_000)},
			{Hash: absentHash, From: sender, Value: big.NewInt(0)},
		},
	}, nil
}

func (s *stubExplorer) Transaction(ctx context.Context, hash string) (*domain.Transaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	number := uint64(436)
	index := uint(2)
	address := contract
	receipt := &domain.Receipt{Status: domain.Status(domain.ReceiptStatusFailed), GasUsed: 53000, ContractAddress: &address}
	if s.legacyReceipt {
		receipt.Status = nil
	}
	return &domain.Transaction{
		Hash:             hash,
		BlockHash:        blockHash,
		BlockNumber:      &number,
		TransactionIndex: &index,
		From:             sender,
		Value:            big.NewInt(0),
		GasPrice:         big.NewInt(20_000_000_000),
		Input:            "0x6080",
		Receipt:          receipt,
	}, nil
}

func (s *stubExplorer) RecentTransactions(ctx context.Context, address string, count int) ([]domain.Transaction, error) {
	s.calls++
	s.count = count
	if s.err != nil {
		return nil, s.err
	}
	to := address
	return []domain.Transaction{{Hash: txHash, From: sender, To: &to, Value: big.NewInt(1), Timestamp: 1_700_000_000}}, nil
}

func newTestHandler(t *testing.T, explorer *stubExplorer) *Handler {
	t.Helper()
	h, err := NewHandler(explorer, config.Config{LatestBlocksCount: 100, AccountTxCount: 20})
	require.NoError(t, err)
	return h
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHomePage(t *testing.T) {
	explorer := &stubExplorer{}
	rec := get(newTestHandler(t, explorer), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Latest Blocks")
	assert.Contains(t, body, `href="/block/`+blockHash+`"`)
	assert.Contains(t, body, "0x88e96d45...f13406cb6")
	assert.Contains(t, body, "2023-11-14 22:13:20 UTC")
	assert.Contains(t, body, "0x5290...169EE7")
	assert.Equal(t, 1, explorer.calls)
	assert.Equal(t, 100, explorer.count)
}

func TestBlockPage(t *testing.T) {
	explorer := &stubExplorer{}
	rec := get(newTestHandler(t, explorer), "/block/"+blockHash)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Block #436")
	assert.Contains(t, body, "30,000,000")
	assert.Contains(t, body, "0.000000001 ETH")
	assert.Contains(t, body, "1.5 ETH")
	assert.Contains(t, body, "Contract Creation")
	assert.Contains(t, body, `href="/transaction/`+txHash+`"`)
	assert.Contains(t, body, `data-copy="`+sender+`"`)
	assert.Equal(t, 1, explorer.calls)
}

func TestTransactionPage(t *testing.T) {
	rec := get(newTestHandler(t, &stubExplorer{}), "/transaction/"+txHash)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, ">Failed</span>")
	assert.Contains(t, body, "20 Gwei")
	assert.Contains(t, body, "20,000,000,000 wei")
	assert.Contains(t, body, "53,000")
	assert.Contains(t, body, "Contract Address")
	assert.Contains(t, body, `href="/account/`+contract+`"`)
	assert.Contains(t, body, "Contract Creation")
	assert.Contains(t, body, "0x6080")
	assert.Contains(t, body, `href="/block/`+blockHash+`"`)
}

func TestTransactionPageWithoutReceiptStatus(t *testing.T) {
	rec := get(newTestHandler(t, &stubExplorer{legacyReceipt: true}), "/transaction/"+txHash)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, ">Unknown</span>")
	assert.NotContains(t, body, ">Failed</span>")
	assert.NotContains(t, body, ">Success</span>")
}

func TestAccountPage(t *testing.T) {
	explorer := &stubExplorer{}
	rec := get(newTestHandler(t, explorer), "/account/"+sender)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Recent Transactions")
	assert.Contains(t, body, "0.000000000000000001 ETH")
	assert.Contains(t, body, "ago")
	assert.Equal(t, 20, explorer.count)
}

func TestMissingObjectsRedirectHome(t *testing.T) {
	for _, err := range []error{domain.ErrNotFound, fmt.Errorf("%w: malformed hash", domain.ErrInvalidInput)} {
		h := newTestHandler(t, &stubExplorer{err: err})
		for _, path := range []string{"/block/" + absentHash, "/transaction/0x12", "/account/nope"} {
			rec := get(h, path)
			assert.Equal(t, http.StatusSeeOther, rec.Code, path)
			assert.Equal(t, "/", rec.Header().Get("Location"), path)
		}
	}
}

func TestUpstreamFailureRendersInlineError(t *testing.T) {
	h := newTestHandler(t, &stubExplorer{err: fmt.Errorf("%w: dial tcp: connection refused", domain.ErrUpstream)})

	rec := get(h, "/block/"+blockHash)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch block")
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = get(h, "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch blocks")
}

func TestUnknownPath(t *testing.T) {
	rec := get(newTestHandler(t, &stubExplorer{}), "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddressPartialEscapes(t *testing.T) {
	h := newTestHandler(t, &stubExplorer{})
	var b strings.Builder
	require.NoError(t, h.pages["home"].ExecuteTemplate(&b, "address", `0x"><script>`))
	assert.NotContains(t, b.String(), "<script>")

	b.Reset()
	require.NoError(t, h.pages["home"].ExecuteTemplate(&b, "address", ""))
	assert.Contains(t, b.String(), "N/A")
}
