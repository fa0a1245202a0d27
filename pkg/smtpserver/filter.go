package smtpserver

import "strings"

// Filter decides whether a recipient address is accepted for capture.
// An address is accepted when it ends with any of the configured domain
// suffixes; the match is case-sensitive and applied independently per
// recipient, so partial acceptance of a multi-recipient envelope is
// possible.
type Filter struct {
	suffixes []string
}

// NewFilter creates a filter over the accepted domain suffixes.
func NewFilter(suffixes []string) *Filter {
	return &Filter{suffixes: suffixes}
}

// Allow reports whether the recipient address is accepted.
func (f *Filter) Allow(address string) bool {
	for _, suffix := range f.suffixes {
		if strings.HasSuffix(address, suffix) {
			return true
		}
	}
	return false
}
