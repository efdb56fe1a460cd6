package catalog

import "context"

// Product is one fully configured purchase of a dataset: the dataset plus its
// resolved option values. Immutable once built.
type Product struct {
	Dataset Dataset
	Results *ResultSet
}

// BuildProduct resolves the dataset's options against the input source and
// wraps the outcome. Option failures come back as *OptionErrors.
func BuildProduct(ds Dataset, src InputSource) (Product, error) {
	results, err := ResolveOptions(ds, src)
	if err != nil {
		return Product{}, err
	}
	return Product{Dataset: ds, Results: results}, nil
}

// Files resolves the product's configuration into confirmed remote file
// identifiers.
func (p Product) Files(ctx context.Context, lister Lister) ([]string, error) {
	groups, err := FileGroups(p)
	if err != nil {
		return nil, err
	}
	return ResolveFiles(ctx, groups, lister)
}
