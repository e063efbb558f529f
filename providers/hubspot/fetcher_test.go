package hubspot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/providers/devkit"
	"github.com/goliatone/go-contact-relay/transport"
	goerrors "github.com/goliatone/go-errors"
)

const contactWithCompany = `{
  "id": "101",
  "properties": {
    "email": "ada@example.com",
    "firstname": "Ada",
    "lastname": "Lovelace",
    "company": "Old Name",
    "phone": null
  },
  "associations": {
    "companies": {
      "results": [{"id": "900", "type": "contact_to_company"}, {"id": "901", "type": "contact_to_company"}]
    }
  }
}`

func newTestFetcher(t *testing.T, adapter core.TransportAdapter) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(Config{AccessToken: "pat-1", BaseURL: "https://hubspot.test/"}, adapter, nil)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return fetcher
}

func TestFetcher_LoadsContactAndFirstCompany(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodGet, PathSuffix: "/contacts/101", Response: devkit.JSON(200, contactWithCompany)},
		devkit.Route{Method: http.MethodGet, PathSuffix: "/companies/900", Response: devkit.JSON(200, `{"id":"900","properties":{"name":"Analytical Engines","city":"London"}}`)},
	)
	fetcher := newTestFetcher(t, adapter)

	contact, err := fetcher.FetchContact(context.Background(), core.ObjectID("101"))
	if err != nil {
		t.Fatalf("fetch contact: %v", err)
	}
	if contact.ID != "101" || contact.Properties.Email != "ada@example.com" {
		t.Fatalf("unexpected contact %#v", contact)
	}
	if contact.Properties.Phone != "" {
		t.Fatalf("expected null property to decode as empty, got %q", contact.Properties.Phone)
	}
	if contact.AssociatedCompany == nil || contact.AssociatedCompany.ID != "900" {
		t.Fatalf("expected first associated company, got %#v", contact.AssociatedCompany)
	}
	if contact.AssociatedCompany.Properties.Name != "Analytical Engines" {
		t.Fatalf("unexpected company properties %#v", contact.AssociatedCompany.Properties)
	}

	requests := adapter.Requests()
	if len(requests) != 2 {
		t.Fatalf("expected contact and company requests, got %d", len(requests))
	}
	contactReq := requests[0]
	if contactReq.URL != "https://hubspot.test/crm/v3/objects/contacts/101" {
		t.Fatalf("unexpected contact url %q", contactReq.URL)
	}
	if contactReq.Headers["Authorization"] != "Bearer pat-1" {
		t.Fatalf("expected bearer token, got %q", contactReq.Headers["Authorization"])
	}
	if contactReq.Query["associations"] != "companies" {
		t.Fatalf("expected company associations to be requested")
	}
	if contactReq.Query["properties"] != strings.Join(core.ContactPropertyNames, ",") {
		t.Fatalf("unexpected contact properties %q", contactReq.Query["properties"])
	}
	if requests[1].Query["properties"] != strings.Join(core.CompanyPropertyNames, ",") {
		t.Fatalf("unexpected company properties %q", requests[1].Query["properties"])
	}
}

func TestFetcher_SkipsCompanyLookupWithoutAssociations(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodGet, PathSuffix: "/contacts/7", Response: devkit.JSON(200, `{"id":"7","properties":{"email":"x@example.com"}}`)},
	)
	fetcher := newTestFetcher(t, adapter)

	contact, err := fetcher.FetchContact(context.Background(), core.ObjectID("7"))
	if err != nil {
		t.Fatalf("fetch contact: %v", err)
	}
	if contact.AssociatedCompany != nil {
		t.Fatalf("expected no company, got %#v", contact.AssociatedCompany)
	}
	if got := len(adapter.Requests()); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

func TestFetcher_NonSuccessStatusFails(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodGet, PathSuffix: "/contacts/404", Response: devkit.JSON(404, `{"status":"error","message":"resource not found"}`)},
	)
	fetcher := newTestFetcher(t, adapter)

	_, err := fetcher.FetchContact(context.Background(), core.ObjectID("404"))
	if err == nil {
		t.Fatalf("expected fetch error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found category, got %q", rich.Category)
	}
	if rich.Metadata["contact_id"] != "404" || rich.Metadata["detail"] != "resource not found" {
		t.Fatalf("unexpected metadata %#v", rich.Metadata)
	}
}

func TestFetcher_CompanyFailureFailsWholeFetch(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter(
		devkit.Route{Method: http.MethodGet, PathSuffix: "/contacts/101", Response: devkit.JSON(200, contactWithCompany)},
		devkit.Route{Method: http.MethodGet, PathSuffix: "/companies/900", Response: devkit.JSON(500, `{"message":"boom"}`)},
	)
	fetcher := newTestFetcher(t, adapter)

	_, err := fetcher.FetchContact(context.Background(), core.ObjectID("101"))
	if err == nil {
		t.Fatalf("expected company failure to fail the fetch")
	}
	if core.StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected upstream status 500, got %d", core.StatusCode(err))
	}
}

func TestFetcher_EmptyIDMakesNoCall(t *testing.T) {
	adapter := devkit.NewFakeTransportAdapter()
	fetcher := newTestFetcher(t, adapter)

	_, err := fetcher.FetchContact(context.Background(), core.ObjectID("  "))
	if err == nil {
		t.Fatalf("expected bad input error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
	if got := len(adapter.Requests()); got != 0 {
		t.Fatalf("expected no remote calls, got %d", got)
	}
}

func TestNewFetcher_RequiresToken(t *testing.T) {
	if _, err := NewFetcher(DefaultConfig(), devkit.NewFakeTransportAdapter(), nil); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestFetcher_OverRESTAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer pat-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/crm/v3/objects/contacts/55":
			if r.URL.Query().Get("associations") != "companies" {
				t.Errorf("expected associations query, got %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"id":"55","properties":{"email":"grace@example.com"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher, err := NewFetcher(
		Config{AccessToken: "pat-1", BaseURL: server.URL},
		transport.NewRESTAdapter(server.Client(), time.Second),
		nil,
	)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	contact, err := fetcher.FetchContact(context.Background(), core.ObjectID("55"))
	if err != nil {
		t.Fatalf("fetch contact: %v", err)
	}
	if contact.Properties.Email != "grace@example.com" {
		t.Fatalf("unexpected email %q", contact.Properties.Email)
	}
}
