// Package kvstore talks to a hosted REST key-value service holding the
// book as one serialized document: GET {base}/get/{key} returns
// {"result": <json-string|null>}, POST {base}/set/{key} overwrites it.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/rentbook/pkg/rentbook"
)

const (
	errorOperationStore = "kvstore"
	errorSubjectDoc     = "document"
	errorCodeConfig     = "config"
	errorCodeGet        = "get"
	errorCodeDecode     = "decode"
	errorCodeEncode     = "encode"
	errorCodeSet        = "set"

	defaultRequestTimeout = 10 * time.Second
)

// Config names the hosted service and the document key.
type Config struct {
	BaseURL    string
	Token      string
	Key        string
	HTTPClient *http.Client
}

// Store implements rentbook.Store over the REST key-value wire protocol.
type Store struct {
	baseURL string
	token   string
	key     string
	client  *http.Client
}

// New validates the configuration and returns a Store.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, wrapStoreError(errorCodeConfig, fmt.Errorf("base url is required"))
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, wrapStoreError(errorCodeConfig, fmt.Errorf("token is required"))
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, wrapStoreError(errorCodeConfig, fmt.Errorf("document key is required"))
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Store{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		key:     cfg.Key,
		client:  client,
	}, nil
}

// Load fetches the document; a null result or a missing key loads as the
// default empty book.
func (store *Store) Load(ctx context.Context) (rentbook.Book, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, store.endpoint("get"), nil)
	if err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeGet, err)
	}
	store.authorize(request)
	response, err := store.client.Do(request)
	if err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeGet, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusNotFound {
		return rentbook.DefaultBook(), nil
	}
	if response.StatusCode >= 300 {
		return rentbook.Book{}, wrapStoreError(errorCodeGet, fmt.Errorf("unexpected status %d", response.StatusCode))
	}

	var payload struct {
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeDecode, err)
	}
	if payload.Result == nil {
		return rentbook.DefaultBook(), nil
	}
	var book rentbook.Book
	if err := json.Unmarshal([]byte(*payload.Result), &book); err != nil {
		return rentbook.Book{}, wrapStoreError(errorCodeDecode, err)
	}
	return book, nil
}

// Save overwrites the document wholesale.
func (store *Store) Save(ctx context.Context, book rentbook.Book) error {
	raw, err := json.Marshal(book)
	if err != nil {
		return wrapStoreError(errorCodeEncode, err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, store.endpoint("set"), bytes.NewReader(raw))
	if err != nil {
		return wrapStoreError(errorCodeSet, err)
	}
	store.authorize(request)
	request.Header.Set("Content-Type", "text/plain; charset=utf-8")
	response, err := store.client.Do(request)
	if err != nil {
		return wrapStoreError(errorCodeSet, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return wrapStoreError(errorCodeSet, fmt.Errorf("unexpected status %d: %s", response.StatusCode, strings.TrimSpace(string(body))))
	}
	return nil
}

func (store *Store) endpoint(operation string) string {
	return fmt.Sprintf("%s/%s/%s", store.baseURL, operation, url.PathEscape(store.key))
}

func (store *Store) authorize(request *http.Request) {
	request.Header.Set("Authorization", "Bearer "+store.token)
}

func wrapStoreError(code string, err error) error {
	return rentbook.WrapError(errorOperationStore, errorSubjectDoc, code, err)
}
