package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/marketlake-labs/marketlake-go/internal/catalog"
	"github.com/marketlake-labs/marketlake-go/internal/platform/auth"
	"github.com/marketlake-labs/marketlake-go/internal/pricing"
)

type catalogAPI struct {
	logger *slog.Logger
	engine *engine
}

func newCatalogAPI(logger *slog.Logger, engine *engine) *catalogAPI {
	return &catalogAPI{
		logger: logger,
		engine: engine,
	}
}

func (api *catalogAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /datasets", api.handleListDatasets)
	mux.HandleFunc("POST /products", api.handleBuildProduct)
	mux.HandleFunc("POST /quotes", api.handleQuote)
	mux.HandleFunc("POST /purchases", api.handlePurchase)
}

func (api *catalogAPI) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	organization := api.engine.organization(strings.TrimSpace(r.URL.Query().Get("organization_id")))

	datasets, err := api.engine.datasets(r.Context(), organization)
	if err != nil {
		api.writeFailure(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"datasets": datasetViews(datasets)})
}

type buildProductRequest struct {
	OrganizationID string            `json:"organization_id,omitempty"`
	Dataset        string            `json:"dataset"`
	Options        map[string]string `json:"options"`
	Force          bool              `json:"force,omitempty"`
}

type productView struct {
	Dataset   string            `json:"dataset"`
	Vendor    string            `json:"vendor"`
	Options   map[string]string `json:"options"`
	FileCount int               `json:"file_count"`
	Price     float64           `json:"price"`
}

func (api *catalogAPI) handleBuildProduct(w http.ResponseWriter, r *http.Request) {
	var req buildProductRequest
	if !api.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Dataset) == "" {
		api.writeError(w, r, http.StatusBadRequest, "dataset_required")
		return
	}

	organization := api.engine.organization(req.OrganizationID)
	quoted, err := api.engine.quoteCart(
		r.Context(),
		organization,
		[]productRequest{{Dataset: req.Dataset, Options: req.Options}},
		req.Force,
	)
	if err != nil {
		api.writeFailure(w, r, err)
		return
	}

	pq := quoted.quote.Products[0]
	api.writeJSON(w, http.StatusOK, map[string]any{
		"product": productView{
			Dataset:   pq.Dataset,
			Vendor:    pq.Vendor,
			Options:   optionEcho(quoted.products[0].product),
			FileCount: pq.FileCount,
			Price:     pq.Price,
		},
		"warnings": quoted.warnings,
	})
}

type quoteRequest struct {
	OrganizationID string           `json:"organization_id,omitempty"`
	Products       []productRequest `json:"products"`
	Force          bool             `json:"force,omitempty"`
}

type quoteView struct {
	Products            []productView `json:"products"`
	TotalPrice          float64       `json:"total_price"`
	SummedPrice         float64       `json:"summed_price"`
	Overlap             bool          `json:"overlap"`
	Balance             float64       `json:"balance"`
	InsufficientBalance bool          `json:"insufficient_balance"`
	Warnings            []string      `json:"warnings,omitempty"`
}

func (api *catalogAPI) quoteView(quoted cart) quoteView {
	view := quoteView{
		TotalPrice:          quoted.quote.TotalPrice,
		SummedPrice:         quoted.quote.SummedPrice,
		Overlap:             quoted.quote.Overlap,
		Balance:             quoted.balance,
		InsufficientBalance: quoted.quote.TotalPrice > quoted.balance,
		Warnings:            quoted.warnings,
	}
	for i, pq := range quoted.quote.Products {
		view.Products = append(view.Products, productView{
			Dataset:   pq.Dataset,
			Vendor:    pq.Vendor,
			Options:   optionEcho(quoted.products[i].product),
			FileCount: pq.FileCount,
			Price:     pq.Price,
		})
	}
	return view
}

func (api *catalogAPI) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !api.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Products) == 0 {
		api.writeError(w, r, http.StatusBadRequest, "products_required")
		return
	}

	organization := api.engine.organization(req.OrganizationID)
	quoted, err := api.engine.quoteCart(r.Context(), organization, req.Products, req.Force)
	if err != nil {
		api.writeFailure(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, api.quoteView(quoted))
}

type purchasedFileView struct {
	File   string `json:"file"`
	Vendor string `json:"vendor"`
}

func (api *catalogAPI) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !api.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Products) == 0 {
		api.writeError(w, r, http.StatusBadRequest, "products_required")
		return
	}

	purchaser := "anonymous"
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		if identity.Email != "" {
			purchaser = identity.Email
		} else if identity.Subject != "" {
			purchaser = identity.Subject
		}
	}

	organization := api.engine.organization(req.OrganizationID)
	quoted, order, err := api.engine.purchase(r.Context(), organization, purchaser, req.Products, req.Force)
	if err != nil {
		api.writeFailure(w, r, err)
		return
	}

	files := make([]purchasedFileView, 0, len(quoted.quote.Files))
	for _, df := range quoted.quote.Files {
		files = append(files, purchasedFileView{File: df.File, Vendor: df.Vendor.Name})
	}
	api.writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":    order.ID,
		"quote":       api.quoteView(quoted),
		"files":       files,
		"total_price": quoted.quote.TotalPrice,
	})
}

// writeFailure maps engine errors onto response codes. Catalog
// inconsistencies are server faults; everything user-correctable is 4xx.
func (api *catalogAPI) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var optionErrs *catalog.OptionErrors
	switch {
	case errors.As(err, &optionErrs):
		api.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_options",
			"message": optionErrs.Error(),
		})
	case errors.Is(err, errUnknownDataset):
		api.writeError(w, r, http.StatusNotFound, "unknown_dataset")
	case errors.Is(err, pricing.ErrMissingSubscription):
		api.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "missing_subscription",
			"message": err.Error(),
		})
	case errors.Is(err, pricing.ErrInsufficientBalance), errors.Is(err, errAgreementNotSigned):
		api.writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "purchase_blocked",
			"message": err.Error(),
		})
	case errors.Is(err, catalog.ErrNoEligiblePath), errors.Is(err, pricing.ErrNoVendorForFile):
		api.logger.Error("catalog inconsistency", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "catalog_inconsistent")
	default:
		api.logger.Error("request failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *catalogAPI) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func (api *catalogAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *catalogAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}
