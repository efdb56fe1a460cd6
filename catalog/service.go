package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/marketlake-labs/marketlake-go/internal/catalog"
	"github.com/marketlake-labs/marketlake-go/internal/cloud"
	"github.com/marketlake-labs/marketlake-go/internal/ledger"
	"github.com/marketlake-labs/marketlake-go/internal/pricing"
)

// marketAPI is the slice of the cloud client the engine uses. The concrete
// implementation is *cloud.Client.
type marketAPI interface {
	ListDatasets(ctx context.Context) ([]cloud.DatasetSummary, error)
	DataInfo(ctx context.Context, organizationID string) (*cloud.DataInfo, error)
	Organization(ctx context.Context, organizationID string) (cloud.Organization, error)
}

// orderRecorder is the ledger surface the engine needs. Nil when the service
// runs without a ledger.
type orderRecorder interface {
	Record(ctx context.Context, order ledger.Order) (ledger.Order, error)
}

// engine assembles datasets from the market API, resolves configured
// products against the remote listing, and prices carts. It holds no state
// beyond its collaborators; per-organization data is cached in infos for the
// process lifetime of a request burst.
type engine struct {
	logger *slog.Logger
	market marketAPI
	infos  *cloud.InfoCache
	lister catalog.Lister
	orders orderRecorder

	defaultOrganization string
}

func newEngine(logger *slog.Logger, market marketAPI, lister catalog.Lister, orders orderRecorder, defaultOrganization string) *engine {
	return &engine{
		logger:              logger,
		market:              market,
		infos:               cloud.NewInfoCache(market),
		lister:              lister,
		orders:              orders,
		defaultOrganization: defaultOrganization,
	}
}

func (e *engine) organization(requested string) string {
	if requested != "" {
		return requested
	}
	return e.defaultOrganization
}

// datasets returns every purchasable dataset for the organization, decoded
// from its datasource document. Cloud-only and pending market entries are
// excluded, and entries without a datasource document are skipped.
func (e *engine) datasets(ctx context.Context, organizationID string) ([]catalog.Dataset, error) {
	summaries, err := e.market.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list market datasets: %w", err)
	}
	info, err := e.infos.DataInfo(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("fetch data info: %w", err)
	}

	datasets := make([]catalog.Dataset, 0, len(summaries))
	for _, summary := range summaries {
		if summary.Pending || summary.Delivery == cloud.DeliveryCloudOnly {
			continue
		}
		raw, ok := info.Datasources[strconv.Itoa(summary.ID)]
		if !ok {
			e.logger.Debug("dataset has no datasource document", "dataset", summary.Name, "id", summary.ID)
			continue
		}
		entry, err := catalog.ParseEntryJSON(raw)
		if err != nil {
			e.logger.Warn("skipping undecodable datasource document",
				"dataset", summary.Name, "id", summary.ID, "error", err)
			continue
		}
		categories := make([]string, 0, len(summary.Tags))
		for _, tag := range summary.Tags {
			categories = append(categories, tag.Name)
		}
		ds, err := catalog.BuildDataset(summary.Name, summary.Vendor, categories, entry)
		if err != nil {
			e.logger.Warn("skipping invalid dataset", "dataset", summary.Name, "error", err)
			continue
		}
		datasets = append(datasets, ds)
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}

func (e *engine) dataset(ctx context.Context, organizationID, name string) (catalog.Dataset, error) {
	datasets, err := e.datasets(ctx, organizationID)
	if err != nil {
		return catalog.Dataset{}, err
	}
	for _, ds := range datasets {
		if ds.Name == name {
			return ds, nil
		}
	}
	return catalog.Dataset{}, fmt.Errorf("%w: %q", errUnknownDataset, name)
}

// productRequest is one configured product in a request body.
type productRequest struct {
	Dataset string            `json:"dataset"`
	Options map[string]string `json:"options"`
}

// configuredProduct pairs a built product with its resolved files.
type configuredProduct struct {
	product catalog.Product
	files   []string
}

func (e *engine) buildProduct(ctx context.Context, organizationID string, req productRequest, lister catalog.Lister) (configuredProduct, error) {
	ds, err := e.dataset(ctx, organizationID, req.Dataset)
	if err != nil {
		return configuredProduct{}, err
	}
	product, err := catalog.BuildProduct(ds, catalog.MapSource(req.Options))
	if err != nil {
		return configuredProduct{}, err
	}
	files, err := product.Files(ctx, lister)
	if err != nil {
		return configuredProduct{}, fmt.Errorf("resolve files for %q: %w", ds.Name, err)
	}
	return configuredProduct{product: product, files: files}, nil
}

// cart is a fully quoted list of products for one organization.
type cart struct {
	products []configuredProduct
	quote    pricing.Quote
	warnings []string
	balance  float64
	agreed   bool
}

// quoteCart builds and prices every requested product. Subscription
// requirements fail the cart unless force is set, in which case they come
// back as warnings.
func (e *engine) quoteCart(ctx context.Context, organizationID string, requests []productRequest, force bool) (cart, error) {
	info, err := e.infos.DataInfo(ctx, organizationID)
	if err != nil {
		return cart{}, fmt.Errorf("fetch data info: %w", err)
	}
	org, err := e.market.Organization(ctx, organizationID)
	if err != nil {
		return cart{}, fmt.Errorf("fetch organization: %w", err)
	}

	result := cart{
		balance: org.Balance,
		agreed:  info.Agreement.Signed,
	}

	// One listing session per cart: overlapping products list each remote
	// prefix once.
	session := cloud.NewListingCache(e.lister)

	entries := make([]pricing.ProductFiles, 0, len(requests))
	for _, req := range requests {
		built, err := e.buildProduct(ctx, organizationID, req, session)
		if err != nil {
			return cart{}, err
		}
		warnings, err := pricing.CheckRequirements(built.product.Dataset, org.Subscriptions, force)
		if err != nil {
			return cart{}, err
		}
		result.warnings = append(result.warnings, warnings...)
		result.products = append(result.products, built)
		entries = append(entries, pricing.ProductFiles{
			Dataset: built.product.Dataset.Name,
			Vendor:  built.product.Dataset.Vendor,
			Files:   built.files,
		})
	}

	quote, err := pricing.QuoteCart(entries, info.Vendors)
	if err != nil {
		return cart{}, err
	}
	result.quote = quote
	return result, nil
}

// purchase quotes the cart, verifies balance and the signed data agreement,
// and records the order. The returned order carries the generated id.
func (e *engine) purchase(ctx context.Context, organizationID, purchaser string, requests []productRequest, force bool) (cart, ledger.Order, error) {
	quoted, err := e.quoteCart(ctx, organizationID, requests, force)
	if err != nil {
		return cart{}, ledger.Order{}, err
	}
	if !quoted.agreed {
		return cart{}, ledger.Order{}, errAgreementNotSigned
	}
	if err := pricing.CheckBalance(quoted.quote, quoted.balance); err != nil {
		return cart{}, ledger.Order{}, err
	}

	order := ledger.Order{
		OrganizationID: organizationID,
		Purchaser:      purchaser,
		TotalPrice:     quoted.quote.TotalPrice,
		FileCount:      len(quoted.quote.Files),
	}
	for _, pq := range quoted.quote.Products {
		order.Products = append(order.Products, ledger.OrderProduct{
			Dataset:   pq.Dataset,
			Vendor:    pq.Vendor,
			FileCount: pq.FileCount,
			Price:     pq.Price,
		})
	}

	if e.orders != nil {
		order, err = e.orders.Record(ctx, order)
		if err != nil {
			return cart{}, ledger.Order{}, fmt.Errorf("record order: %w", err)
		}
	}
	return quoted, order, nil
}

// optionEcho renders a product's resolved options as id to display label.
func optionEcho(p catalog.Product) map[string]string {
	echo := make(map[string]string, p.Results.Len())
	for _, id := range p.Results.IDs() {
		if result, ok := p.Results.Get(id); ok {
			echo[id] = result.Label
		}
	}
	return echo
}

// datasetView is the wire shape of one dataset in GET /datasets.
type datasetView struct {
	Name       string       `json:"name"`
	Vendor     string       `json:"vendor"`
	Categories []string     `json:"categories,omitempty"`
	Options    []optionView `json:"options"`
}

type optionView struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Kind        string   `json:"kind"`
	Choices     []string `json:"choices,omitempty"`
	Multiple    bool     `json:"multiple,omitempty"`
}

func datasetViews(datasets []catalog.Dataset) []datasetView {
	views := make([]datasetView, 0, len(datasets))
	for _, ds := range datasets {
		view := datasetView{
			Name:       ds.Name,
			Vendor:     ds.Vendor,
			Categories: ds.Categories,
		}
		for _, opt := range ds.Options {
			ov := optionView{
				ID:          opt.ID,
				Label:       opt.Label,
				Description: opt.Description,
				Kind:        string(opt.Kind),
				Multiple:    opt.Multiple,
			}
			for _, choice := range opt.Choices {
				ov.Choices = append(ov.Choices, choice.Key)
			}
			view.Options = append(view.Options, ov)
		}
		views = append(views, view)
	}
	return views
}

var (
	errUnknownDataset     = errors.New("unknown dataset")
	errAgreementNotSigned = errors.New("data agreement has not been accepted")
)
