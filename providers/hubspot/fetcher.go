package hubspot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/transport"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	ProviderID     = "hubspot"
	DefaultBaseURL = core.DefaultHubSpotBaseURL

	contactsPath  = "/crm/v3/objects/contacts/"
	companiesPath = "/crm/v3/objects/companies/"
)

type Config struct {
	AccessToken string
	BaseURL     string
}

func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL}
}

// Fetcher reads contacts, and the first associated company, from the
// HubSpot CRM v3 objects API.
type Fetcher struct {
	cfg       Config
	transport core.TransportAdapter
	logger    core.Logger
}

func NewFetcher(cfg Config, adapter core.TransportAdapter, logger core.Logger) (*Fetcher, error) {
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.AccessToken == "" {
		return nil, providerError("hubspot: access token is required", goerrors.CategoryValidation, nil)
	}
	if adapter == nil {
		return nil, providerError("hubspot: transport adapter is required", goerrors.CategoryInternal, nil)
	}
	if logger == nil {
		logger = glog.Nop()
	}
	return &Fetcher{cfg: cfg, transport: adapter, logger: logger}, nil
}

type objectRef struct {
	ID   core.ObjectID `json:"id"`
	Type string        `json:"type"`
}

type contactResponse struct {
	ID           core.ObjectID          `json:"id"`
	Properties   core.ContactProperties `json:"properties"`
	Associations struct {
		Companies struct {
			Results []objectRef `json:"results"`
		} `json:"companies"`
	} `json:"associations"`
}

type companyResponse struct {
	ID         core.ObjectID          `json:"id"`
	Properties core.CompanyProperties `json:"properties"`
}

// FetchContact loads the contact with its fixed property list. When the
// contact has associated companies the first one is loaded as well; a failed
// company lookup fails the whole fetch.
func (f *Fetcher) FetchContact(ctx context.Context, id core.ObjectID) (core.SourceContact, error) {
	contactID := strings.TrimSpace(id.String())
	if contactID == "" {
		return core.SourceContact{}, providerError("hubspot: contact id is required", goerrors.CategoryBadInput, nil)
	}

	res, err := f.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     f.cfg.BaseURL + contactsPath + url.PathEscape(contactID),
		Headers: f.headers(),
		Query: map[string]string{
			"properties":   strings.Join(core.ContactPropertyNames, ","),
			"associations": "companies",
		},
		Metadata: map[string]any{"provider": ProviderID, "object": "contact"},
	})
	if err != nil {
		return core.SourceContact{}, wrapFetchError(err, "hubspot: fetch contact", map[string]any{"contact_id": contactID})
	}
	if !transport.Success(res) {
		return core.SourceContact{}, transport.StatusError("hubspot: fetch contact", res, map[string]any{"contact_id": contactID})
	}

	var payload contactResponse
	if err := transport.DecodeJSON(res, &payload, map[string]any{"contact_id": contactID}); err != nil {
		return core.SourceContact{}, err
	}

	contact := core.SourceContact{
		ID:         firstID(payload.ID.String(), contactID),
		Properties: payload.Properties,
	}

	if companyID := firstCompanyID(payload.Associations.Companies.Results); companyID != "" {
		company, err := f.fetchCompany(ctx, contactID, companyID)
		if err != nil {
			return core.SourceContact{}, err
		}
		contact.AssociatedCompany = &company
	}

	f.logger.Debug("hubspot contact fetched",
		"contact_id", contact.ID,
		"has_company", contact.AssociatedCompany != nil,
	)
	return contact, nil
}

func (f *Fetcher) fetchCompany(ctx context.Context, contactID, companyID string) (core.SourceCompany, error) {
	metadata := map[string]any{"contact_id": contactID, "company_id": companyID}
	res, err := f.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     f.cfg.BaseURL + companiesPath + url.PathEscape(companyID),
		Headers: f.headers(),
		Query: map[string]string{
			"properties": strings.Join(core.CompanyPropertyNames, ","),
		},
		Metadata: map[string]any{"provider": ProviderID, "object": "company"},
	})
	if err != nil {
		return core.SourceCompany{}, wrapFetchError(err, "hubspot: fetch associated company", metadata)
	}
	if !transport.Success(res) {
		return core.SourceCompany{}, transport.StatusError("hubspot: fetch associated company", res, metadata)
	}

	var payload companyResponse
	if err := transport.DecodeJSON(res, &payload, metadata); err != nil {
		return core.SourceCompany{}, err
	}
	return core.SourceCompany{
		ID:         firstID(payload.ID.String(), companyID),
		Properties: payload.Properties,
	}, nil
}

func (f *Fetcher) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + f.cfg.AccessToken}
}

func firstCompanyID(results []objectRef) string {
	for _, ref := range results {
		if id := strings.TrimSpace(ref.ID.String()); id != "" {
			return id
		}
	}
	return ""
}

func firstID(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func wrapFetchError(err error, message string, metadata map[string]any) error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("%s failed", message))
	if wrapped.Code == 0 {
		wrapped.WithCode(http.StatusBadGateway)
	}
	if wrapped.TextCode == "" {
		wrapped.WithTextCode(core.RelayErrorExternalFailure)
	}
	return wrapped.WithMetadata(metadata)
}

func providerError(message string, category goerrors.Category, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(core.HTTPStatusForCategory(category)).
		WithTextCode(core.TextCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

var _ core.ContactFetcher = (*Fetcher)(nil)
