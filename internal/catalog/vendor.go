package catalog

import "regexp"

// Vendor is one row of the organization's price table: a matcher over file
// identifiers and a per-file price. A nil price means the vendor does not
// currently sell matching files.
type Vendor struct {
	Name  string
	Regex *regexp.Regexp
	Price *float64
}

func (v Vendor) Matches(file string) bool {
	return v.Regex != nil && v.Regex.MatchString(file)
}

// DataFile is the terminal unit of resolution: a concrete remote file
// attributed to its billing vendor.
type DataFile struct {
	File   string
	Vendor Vendor
}
