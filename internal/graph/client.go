// Package graph talks to the Microsoft Graph drive API: listing SharePoint
// folders, resolving the latest export file, downloading its content, and
// managing the change-notification subscription.
package graph

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

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"

	"garden31/tend-sync/internal/pipeerror"
)

const (
	// DefaultBaseURL is the Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	defaultScope   = "https://graph.microsoft.com/.default"

	errorBodyLimit = 512
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Credentials identifies the service principal used for app-only Graph
// access.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// FolderFacet marks a drive item as a folder.
type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

// FileFacet marks a drive item as a file.
type FileFacet struct {
	MimeType string `json:"mimeType"`
}

// ParentReference locates a drive item's containing drive.
type ParentReference struct {
	DriveID string `json:"driveId"`
}

// DriveItem is the subset of the Graph driveItem resource the pipeline
// needs. Exactly one of Folder and File is present.
type DriveItem struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	LastModifiedDateTime time.Time       `json:"lastModifiedDateTime"`
	Size                 int64           `json:"size"`
	ParentReference      ParentReference `json:"parentReference"`
	Folder               *FolderFacet    `json:"folder,omitempty"`
	File                 *FileFacet      `json:"file,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (i DriveItem) IsFolder() bool {
	return i.Folder != nil
}

type driveItemPage struct {
	Value []DriveItem `json:"value"`
}

type driveResource struct {
	ID string `json:"id"`
}

// Client is a minimal Graph API client. Authorization is handled by the
// underlying oauth2 client-credentials transport, which injects and
// refreshes the bearer token on every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client that authenticates with the client-credentials
// grant against the tenant's token endpoint. A token that cannot be
// obtained surfaces as an error on the first request, which is fatal to the
// run.
func NewClient(ctx context.Context, creds Credentials) *Client {
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, creds.TenantID),
		Scopes:       []string{defaultScope},
	}
	httpClient := conf.Client(ctx)
	httpClient.Timeout = 2 * time.Minute
	return &Client{baseURL: DefaultBaseURL, httpClient: httpClient}
}

// NewClientWithHTTP builds a Client against a custom endpoint with a
// pre-configured HTTP client. Used by tests.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// SiteDrive resolves the default document library of a SharePoint site
// addressed by hostname and server-relative path (e.g. "/sites/Garden31").
func (c *Client) SiteDrive(ctx context.Context, hostname, sitePath string) (string, error) {
	var drive driveResource
	u := fmt.Sprintf("%s/sites/%s:/%s:/drive", c.baseURL, hostname, EncodePath(sitePath))
	if err := c.getJSON(ctx, u, &drive); err != nil {
		return "", err
	}
	return drive.ID, nil
}

// ChildrenByPath lists the children of a folder addressed by its
// slash-separated path below the drive root.
func (c *Client) ChildrenByPath(ctx context.Context, driveID, folderPath string) ([]DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/root:/%s:/children", c.baseURL, driveID, EncodePath(folderPath))
	var page driveItemPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// ChildrenByID lists the children of a folder addressed by item id.
func (c *Client) ChildrenByID(ctx context.Context, driveID, itemID string) ([]DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/children", c.baseURL, driveID, itemID)
	var page driveItemPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// RootChildren lists the children of the drive root.
func (c *Client) RootChildren(ctx context.Context, driveID string) ([]DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/root/children", c.baseURL, driveID)
	var page driveItemPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// Download streams the content of a drive item. The caller must close the
// returned reader.
func (c *Client) Download(ctx context.Context, driveID, itemID string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/drives/%s/items/%s/content", c.baseURL, driveID, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error building download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() {
			if err := resp.Body.Close(); err != nil {
				log.WithError(err).Warn("Failed to close response body")
			}
		}()
		return nil, requestError(req, resp)
	}
	return resp.Body, nil
}

// getJSON issues an authorized GET and decodes the response into v.
func (c *Client) getJSON(ctx context.Context, u string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	return c.doJSON(req, v)
}

// postJSON issues an authorized POST with a JSON body and decodes the
// response into v when v is non-nil.
func (c *Client) postJSON(ctx context.Context, u string, body, v interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, v)
}

func (c *Client) doJSON(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", req.URL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return requestError(req, resp)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", req.URL, err)
	}
	return nil
}

// requestError reads a bounded snippet of the response body into the error
// so failures carry the Graph diagnostic without an unbounded read.
func requestError(req *http.Request, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &pipeerror.RequestError{
		Method: req.Method,
		URL:    req.URL.String(),
		Status: resp.StatusCode,
		Body:   string(snippet),
	}
}

// EncodePath percent-encodes each segment of a slash-separated path while
// keeping "/" as the segment delimiter.
func EncodePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
