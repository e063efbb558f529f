package pandadoc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-contact-relay/core"
	"github.com/goliatone/go-contact-relay/transport"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	ProviderID     = "pandadoc"
	DefaultBaseURL = core.DefaultPandaDocBaseURL

	contactsPath    = "/contacts"
	duplicateMarker = "already exists"
)

type Config struct {
	APIKey  string
	BaseURL string
}

func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL}
}

// Upserter creates PandaDoc contacts. PandaDoc has no update-by-email call,
// so a duplicate conflict is treated as the contact already being in sync.
type Upserter struct {
	cfg       Config
	transport core.TransportAdapter
	logger    core.Logger
}

func NewUpserter(cfg Config, adapter core.TransportAdapter, logger core.Logger) (*Upserter, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		return nil, providerError("pandadoc: api key is required", goerrors.CategoryValidation, nil)
	}
	if adapter == nil {
		return nil, providerError("pandadoc: transport adapter is required", goerrors.CategoryInternal, nil)
	}
	if logger == nil {
		logger = glog.Nop()
	}
	return &Upserter{cfg: cfg, transport: adapter, logger: logger}, nil
}

type contactRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u *Upserter) Upsert(ctx context.Context, contact core.DestinationContact) (core.UpsertResult, error) {
	email := strings.TrimSpace(contact.Email)
	if email == "" {
		return core.UpsertResult{}, providerError("pandadoc: contact email is required", goerrors.CategoryBadInput, nil)
	}
	contact.Email = email

	body, err := json.Marshal(contact)
	if err != nil {
		return core.UpsertResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "pandadoc: encode contact").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.RelayErrorInternal)
	}

	res, err := u.transport.Do(ctx, core.TransportRequest{
		Method:   http.MethodPost,
		URL:      u.cfg.BaseURL + contactsPath,
		Headers:  map[string]string{"Authorization": "API-Key " + u.cfg.APIKey},
		Body:     body,
		Metadata: map[string]any{"provider": ProviderID, "object": "contact"},
	})
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, "pandadoc: create contact failed").
			WithMetadata(map[string]any{"email": email})
		if wrapped.Code == 0 {
			wrapped.WithCode(http.StatusBadGateway).WithTextCode(core.RelayErrorExternalFailure)
		}
		u.logger.Error("pandadoc create contact failed", "email", email, "error", err)
		return core.UpsertResult{}, wrapped
	}

	if transport.Success(res) {
		result := core.UpsertResult{Status: core.UpsertStatusCreated, Email: email}
		if len(res.Body) > 0 {
			var created contactRecord
			if err := json.Unmarshal(res.Body, &created); err == nil {
				result.ID = created.ID
				if created.Email != "" {
					result.Email = created.Email
				}
			}
			var record map[string]any
			if err := json.Unmarshal(res.Body, &record); err == nil {
				result.Record = record
			}
		}
		u.logger.Info("pandadoc contact synced", "email", result.Email, "contact_id", result.ID)
		return result, nil
	}

	if IsDuplicate(res) {
		u.logger.Info("pandadoc contact already exists", "email", email)
		return core.UpsertResult{Status: core.UpsertStatusDuplicate, Email: email}, nil
	}

	statusErr := transport.StatusError("pandadoc: create contact", res, map[string]any{"email": email})
	u.logger.Error("pandadoc create contact failed",
		"email", email,
		"status_code", res.StatusCode,
		"detail", transport.Detail(res.Body),
	)
	return core.UpsertResult{}, statusErr
}

// IsDuplicate reports whether a response is PandaDoc's duplicate-contact
// rejection: a 400 whose detail mentions that the contact already exists.
func IsDuplicate(res core.TransportResponse) bool {
	if res.StatusCode != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(duplicateDetail(res.Body)), duplicateMarker)
}

func duplicateDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return string(body)
	}
	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}
	return string(payload.Detail)
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

var _ core.ContactUpserter = (*Upserter)(nil)
