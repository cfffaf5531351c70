package dns

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/httpapi"
)

// DefaultDigitalOceanAPI is the public DigitalOcean API root.
const DefaultDigitalOceanAPI = "https://api.digitalocean.com/v2"

// listPageSize covers every record of a typical zone in one request.
const listPageSize = 500

// DigitalOcean implements Provider against the DigitalOcean domains API.
type DigitalOcean struct {
	client *httpapi.Client
}

// NewDigitalOcean creates a provider. An empty apiURL selects the public API.
func NewDigitalOcean(httpClient *http.Client, apiURL, token string) *DigitalOcean {
	if apiURL == "" {
		apiURL = DefaultDigitalOceanAPI
	}
	return &DigitalOcean{client: httpapi.New(httpClient, apiURL, token, errors.CategoryDNS)}
}

type doRecord struct {
	ID   int64  `json:"id,omitempty"`
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int    `json:"ttl"`
}

func (r doRecord) toRecord() Record {
	return Record{ID: strconv.FormatInt(r.ID, 10), Type: r.Type, Name: r.Name, Data: r.Data, TTL: r.TTL}
}

func recordsPath(domain string) string {
	return "/domains/" + url.PathEscape(domain) + "/records"
}

// ListRecords returns every record of domain.
func (d *DigitalOcean) ListRecords(ctx context.Context, domain string) ([]Record, error) {
	req, err := d.client.NewRequest(ctx, http.MethodGet, fmt.Sprintf("%s?per_page=%d", recordsPath(domain), listPageSize), nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		DomainRecords []doRecord `json:"domain_records"`
	}
	if err := d.client.Do(req, &body); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(body.DomainRecords))
	for _, r := range body.DomainRecords {
		out = append(out, r.toRecord())
	}
	return out, nil
}

// DeleteRecord removes the record with id from domain.
func (d *DigitalOcean) DeleteRecord(ctx context.Context, domain, id string) error {
	req, err := d.client.NewRequest(ctx, http.MethodDelete, recordsPath(domain)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return d.client.Do(req, nil)
}

// CreateRecord adds rec to domain and returns the stored record.
func (d *DigitalOcean) CreateRecord(ctx context.Context, domain string, rec Record) (Record, error) {
	req, err := d.client.NewRequest(ctx, http.MethodPost, recordsPath(domain), doRecord{
		Type: rec.Type,
		Name: rec.Name,
		Data: rec.Data,
		TTL:  rec.TTL,
	})
	if err != nil {
		return Record{}, err
	}
	var body struct {
		DomainRecord doRecord `json:"domain_record"`
	}
	if err := d.client.Do(req, &body); err != nil {
		return Record{}, err
	}
	return body.DomainRecord.toRecord(), nil
}
