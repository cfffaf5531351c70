// Package dns keeps TXT discovery records pointing at the latest published
// locations. A Reconciler drives a Provider through list, delete and create so
// that each (domain, name) ends a pass with exactly one TXT record.
package dns

import "context"

// TypeTXT is the only record type the reconciler manages.
const TypeTXT = "TXT"

// DefaultTTL is the TTL in seconds applied when the caller passes zero.
const DefaultTTL = 300

// Record names relative to the project domain.
const (
	NameWebsiteDrive = "@"
	NameAPIDrive     = "api"
	NameWebsiteLink  = "_dnslink"
	NameAPILink      = "_dnslink.api"
)

// Record is a DNS record as seen through a Provider.
type Record struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int    `json:"ttl"`
}

// Provider is the DNS hosting API the reconciler drives.
type Provider interface {
	ListRecords(ctx context.Context, domain string) ([]Record, error)
	DeleteRecord(ctx context.Context, domain, id string) error
	CreateRecord(ctx context.Context, domain string, rec Record) (Record, error)
}

// DriveData renders the TXT value advertising a drive key. A leading
// "hyper://" scheme is stripped.
func DriveData(key string) string {
	const scheme = "hyper://"
	if len(key) >= len(scheme) && key[:len(scheme)] == scheme {
		key = key[len(scheme):]
	}
	return "datkey=" + key
}

// LinkData renders a DNSLink TXT value for an IPFS CID.
func LinkData(cid string) string {
	return "dnslink=/ipfs/" + cid
}

// DriveName returns the drive record name for a tree ("website" or "api").
func DriveName(tree string) string {
	if tree == "api" {
		return NameAPIDrive
	}
	return NameWebsiteDrive
}

// LinkName returns the DNSLink record name for a tree ("website" or "api").
func LinkName(tree string) string {
	if tree == "api" {
		return NameAPILink
	}
	return NameWebsiteLink
}
