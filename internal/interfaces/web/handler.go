// Package web renders the explorer pages server-side.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"chainexplorer/internal/application"
	"chainexplorer/internal/config"
	"chainexplorer/internal/domain"
	"chainexplorer/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

// Explorer is the subset of the read API the pages use. Each page makes
// exactly one call per request.
type Explorer interface {
	LatestBlocks(ctx context.Context, count int) ([]domain.Block, error)
	BlockWithTransactions(ctx context.Context, hash string) (*domain.Block, error)
	Transaction(ctx context.Context, hash string) (*domain.Transaction, error)
	RecentTransactions(ctx context.Context, address string, count int) ([]domain.Transaction, error)
}

type Handler struct {
	explorer Explorer
	cfg      config.Config
	pages    map[string]*template.Template
	mux      *http.ServeMux
}

type page struct {
	Title string
	Body  any
}

type accountView struct {
	Address      string
	Transactions []domain.Transaction
}

type errorView struct {
	Message string
}

var pageNames = []string{"home", "block", "transaction", "account", "error"}

func NewHandler(explorer Explorer, cfg config.Config) (*Handler, error) {
	if explorer == nil {
		return nil, errors.New("explorer is required")
	}
	h := &Handler{explorer: explorer, cfg: cfg, pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		h.pages[name] = tmpl
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET /{$}", h.handleHome)
	h.mux.HandleFunc("GET /block/{hash}", h.handleBlock)
	h.mux.HandleFunc("GET /transaction/{hash}", h.handleTransaction)
	h.mux.HandleFunc("GET /account/{address}", h.handleAccount)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.explorer.LatestBlocks(r.Context(), h.cfg.LatestBlocksCount)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch blocks")
		return
	}
	h.render(w, r, http.StatusOK, "home", page{Title: "Latest Blocks", Body: blocks})
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	block, err := h.explorer.BlockWithTransactions(r.Context(), r.PathValue("hash"))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch block")
		return
	}
	h.render(w, r, http.StatusOK, "block", page{Title: fmt.Sprintf("Block #%d", block.Number), Body: block})
}

func (h *Handler) handleTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.explorer.Transaction(r.Context(), r.PathValue("hash"))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch transaction")
		return
	}
	h.render(w, r, http.StatusOK, "transaction", page{Title: "Transaction " + format.TruncateHash(tx.Hash), Body: tx})
}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	txs, err := h.explorer.RecentTransactions(r.Context(), address, h.cfg.AccountTxCount)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch transactions")
		return
	}
	h.render(w, r, http.StatusOK, "account", page{
		Title: "Account " + format.ShortAddress(address),
		Body:  accountView{Address: address, Transactions: txs},
	})
}

// fail sends unknown or malformed lookups back to the home page and shows
// upstream failures inline.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	if application.IsNotFound(err) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	slog.ErrorContext(r.Context(), "page lookup failed", "path", r.URL.Path, "err", err)
	h.render(w, r, http.StatusBadGateway, "error", page{Title: "Error", Body: errorView{Message: message}})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.ErrorContext(r.Context(), "render failed", "page", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
