package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marketlake-labs/marketlake-go/internal/catalog"
)

var (
	// ErrNoVendorForFile means the price table has no vendor selling a
	// resolved file. Fatal: surfaced with the offending file so support can
	// be engaged.
	ErrNoVendorForFile = errors.New("no data vendor sells this file")

	// ErrInsufficientBalance means the cart total exceeds the organization's
	// credit balance. Recoverable by reducing the selection or funding the
	// account.
	ErrInsufficientBalance = errors.New("total price exceeds the organization's credit balance")

	// ErrMissingSubscription means the dataset requires a subscription the
	// organization does not hold. A force flag downgrades it to a warning.
	ErrMissingSubscription = errors.New("missing required subscription")
)

// AttributeVendors maps files to their billing vendor. Files are processed in
// sorted order; the previous file's vendor is retried first since sorted
// listings are dominated by runs of same-vendor files, falling back to a scan
// of the table in declared order (first match wins, vendors without a price
// skipped).
func AttributeVendors(files []string, vendors []catalog.Vendor) ([]catalog.DataFile, error) {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	mapped := make([]catalog.DataFile, 0, len(sorted))
	var lastVendor *catalog.Vendor

	for _, file := range sorted {
		if lastVendor != nil && lastVendor.Matches(file) {
			mapped = append(mapped, catalog.DataFile{File: file, Vendor: *lastVendor})
			continue
		}

		lastVendor = nil
		for i := range vendors {
			if vendors[i].Price == nil {
				continue
			}
			if vendors[i].Matches(file) {
				mapped = append(mapped, catalog.DataFile{File: file, Vendor: vendors[i]})
				lastVendor = &vendors[i]
				break
			}
		}
		if lastVendor == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoVendorForFile, file)
		}
	}

	return mapped, nil
}

// TotalPrice sums the vendor price over the given files. Callers must
// deduplicate before summing when pricing a cart.
func TotalPrice(files []catalog.DataFile) float64 {
	var total float64
	for _, file := range files {
		if file.Vendor.Price != nil {
			total += *file.Vendor.Price
		}
	}
	return total
}

// ProductFiles is one cart entry: a configured product's resolved files.
type ProductFiles struct {
	Dataset string
	Vendor  string
	Files   []string
}

// ProductQuote is the display price of one product billed independently.
type ProductQuote struct {
	Dataset   string
	Vendor    string
	FileCount int
	Price     float64
}

// Quote prices a whole cart. TotalPrice bills the deduplicated union of
// files across products; SummedPrice is what the products would cost billed
// independently. Overlap flags carts where the two differ, which signals the
// same physical file being required by more than one product.
type Quote struct {
	Products    []ProductQuote
	Files       []catalog.DataFile
	TotalPrice  float64
	SummedPrice float64
	Overlap     bool
}

// QuoteCart attributes and prices every product independently, then prices
// the deduplicated union for the actual charge.
func QuoteCart(products []ProductFiles, vendors []catalog.Vendor) (Quote, error) {
	quote := Quote{Products: make([]ProductQuote, 0, len(products))}

	union := make(map[string]struct{})
	for _, product := range products {
		mapped, err := AttributeVendors(product.Files, vendors)
		if err != nil {
			return Quote{}, err
		}
		price := TotalPrice(mapped)
		quote.Products = append(quote.Products, ProductQuote{
			Dataset:   product.Dataset,
			Vendor:    product.Vendor,
			FileCount: len(mapped),
			Price:     price,
		})
		quote.SummedPrice += price

		for _, file := range product.Files {
			union[file] = struct{}{}
		}
	}

	unionFiles := make([]string, 0, len(union))
	for file := range union {
		unionFiles = append(unionFiles, file)
	}
	sort.Strings(unionFiles)

	mapped, err := AttributeVendors(unionFiles, vendors)
	if err != nil {
		return Quote{}, err
	}
	quote.Files = mapped
	quote.TotalPrice = TotalPrice(mapped)
	quote.Overlap = quote.TotalPrice != quote.SummedPrice

	return quote, nil
}

// CheckBalance verifies the organization can afford the cart.
func CheckBalance(quote Quote, balance float64) error {
	if quote.TotalPrice > balance {
		return fmt.Errorf("%w: need %.0f, have %.0f", ErrInsufficientBalance, quote.TotalPrice, balance)
	}
	return nil
}

// CheckRequirements verifies the organization holds every subscription the
// dataset requires. With force the failures come back as warnings instead of
// an error.
func CheckRequirements(ds catalog.Dataset, subscriptions []string, force bool) ([]string, error) {
	held := make(map[string]struct{}, len(subscriptions))
	for _, id := range subscriptions {
		held[strings.TrimSpace(id)] = struct{}{}
	}

	var warnings []string
	for id, slug := range ds.Requirements {
		if _, ok := held[id]; ok {
			continue
		}
		detail := fmt.Sprintf("dataset %q requires subscription %s (see datasets/%s/pricing)", ds.Name, id, slug)
		if !force {
			return nil, fmt.Errorf("%w: %s", ErrMissingSubscription, detail)
		}
		warnings = append(warnings, detail)
	}
	sort.Strings(warnings)
	return warnings, nil
}
