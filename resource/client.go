package resource

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-splist/core"
	"github.com/goliatone/go-splist/odata"
)

// CredentialSource supplies the headers every request starts from and the
// digest required by writes.
type CredentialSource interface {
	BaseHeaders() core.Headers
	Digest(ctx context.Context) string
}

type ClientConfig struct {
	Definition     Definition
	Credentials    CredentialSource
	Transport      core.TransportAdapter
	RequestTimeout time.Duration
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Metrics        core.MetricsRecorder
}

type Client struct {
	def         Definition
	credentials CredentialSource
	transport   core.TransportAdapter
	timeout     time.Duration
	logger      core.Logger
	metrics     core.MetricsRecorder
}

func NewClient(cfg ClientConfig) (*Client, error) {
	def := cfg.Definition.normalized()
	if err := def.validate(); err != nil {
		return nil, core.NewBadInput(err.Error(), map[string]any{"resource": def.Name})
	}
	if cfg.Credentials == nil {
		return nil, core.NewBadInput("resource: credential source is required", map[string]any{"resource": def.Name})
	}
	if cfg.Transport == nil {
		return nil, core.NewBadInput("resource: transport is required", map[string]any{"resource": def.Name})
	}
	return &Client{
		def:         def,
		credentials: cfg.Credentials,
		transport:   cfg.Transport,
		timeout:     cfg.RequestTimeout,
		logger:      core.ResolveLogger("splist.resource."+def.Name, cfg.LoggerProvider, cfg.Logger),
		metrics:     core.EnsureMetrics(cfg.Metrics),
	}, nil
}

func (c *Client) Definition() Definition {
	return c.def
}

func (c *Client) Name() string {
	return c.def.Name
}

// ReadOne returns the first item matching filter under the resource
// projection, or an empty item when nothing matches.
func (c *Client) ReadOne(ctx context.Context, filter string) (odata.Item, error) {
	query := c.def.Query.WithFilter(filter)
	items, err := c.readCollection(ctx, core.OperationReadOne, c.itemsPath(), query)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return odata.Item{}, nil
	}
	return items[0], nil
}

// ReadMany returns items whose search field contains every token. A top of
// zero uses the definition default.
func (c *Client) ReadMany(ctx context.Context, tokens []string, top int) ([]odata.Item, error) {
	if top <= 0 {
		top = c.def.DefaultTop
	}
	query := c.def.Query.
		WithFilter(odata.SearchFilter(c.def.SearchField, tokens)).
		WithTop(top)
	return c.readCollection(ctx, core.OperationReadMany, c.itemsPath(), query)
}

// ReadEntity reads a path under the resource base that may answer with a
// single entity or a collection.
func (c *Client) ReadEntity(ctx context.Context, subPath string, filter string) ([]odata.Item, error) {
	query := c.def.Query.WithFilter(filter)
	if err := query.Validate(); err != nil {
		return nil, err
	}
	res, target, err := c.send(ctx, core.OperationReadEntity, http.MethodGet, strings.TrimLeft(subPath, "/"), c.credentials.BaseHeaders(), query.Params(), nil)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, core.NewFetchFailed(c.failure(core.OperationReadEntity, target, res.StatusCode))
	}
	items, err := odata.DecodeEither(res.Body)
	if err != nil {
		return nil, core.NewDecodeFailed(err, c.def.Name, core.OperationReadEntity, target)
	}
	return items, nil
}

func (c *Client) readCollection(ctx context.Context, operation string, path string, query odata.Query) ([]odata.Item, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	res, target, err := c.send(ctx, operation, http.MethodGet, path, c.credentials.BaseHeaders(), query.Params(), nil)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, core.NewFetchFailed(c.failure(operation, target, res.StatusCode))
	}
	items, err := odata.DecodeCollection(res.Body)
	if err != nil {
		return nil, core.NewDecodeFailed(err, c.def.Name, operation, target)
	}
	return items, nil
}

// Create posts payload tagged with the resource entity type. The created
// record is returned only when the definition echoes it; otherwise the
// result is an empty item.
func (c *Client) Create(ctx context.Context, payload odata.Item) (odata.Item, error) {
	body, err := c.writeBody(core.OperationCreate, payload)
	if err != nil {
		return nil, err
	}
	operationHeaders := core.NewHeaders(core.Header{Name: core.HeaderRequestDigest, Value: c.credentials.Digest(ctx)})
	if !c.def.EchoCreated {
		operationHeaders.Set(core.HeaderPrefer, "return=no-content")
	}
	headers := c.composeWriteHeaders(operationHeaders)

	res, target, err := c.send(ctx, core.OperationCreate, http.MethodPost, c.itemsPath(), headers, projectionParams(c.def.Query), body)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, core.NewCreateFailed(c.failure(core.OperationCreate, target, res.StatusCode))
	}
	if !c.def.EchoCreated {
		return odata.Item{}, nil
	}
	created, err := odata.DecodeEntity(res.Body)
	if err != nil {
		return nil, core.NewDecodeFailed(err, c.def.Name, core.OperationCreate, target)
	}
	return created, nil
}

// Update merges payload into item id.
func (c *Client) Update(ctx context.Context, id int, payload odata.Item) error {
	if id <= 0 {
		return core.NewBadInput("resource: update requires a persisted item id", map[string]any{"resource": c.def.Name, "id": id})
	}
	body, err := c.writeBody(core.OperationUpdate, payload)
	if err != nil {
		return err
	}
	headers := c.composeWriteHeaders(core.NewHeaders(
		core.Header{Name: core.HeaderRequestDigest, Value: c.credentials.Digest(ctx)},
		core.Header{Name: core.HeaderHTTPMethod, Value: "MERGE"},
		core.Header{Name: core.HeaderIfMatch, Value: "*"},
	))

	res, target, err := c.send(ctx, core.OperationUpdate, http.MethodPost, c.itemPath(id), headers, nil, body)
	if err != nil {
		return err
	}
	if !res.OK() {
		return core.NewUpdateFailed(c.failure(core.OperationUpdate, target, res.StatusCode))
	}
	return nil
}

// UploadAttachment adds content as filename to item itemID.
func (c *Client) UploadAttachment(ctx context.Context, content []byte, filename string, itemID int) error {
	if err := c.validateAttachment(core.OperationUploadAttachment, filename, itemID); err != nil {
		return err
	}
	headers := c.composeWriteHeaders(core.NewHeaders(
		core.Header{Name: core.HeaderRequestDigest, Value: c.credentials.Digest(ctx)},
		core.Header{Name: core.HeaderContentType, Value: core.MediaTypeOctetStream},
	))

	res, target, err := c.send(ctx, core.OperationUploadAttachment, http.MethodPost, c.attachmentAddPath(itemID, filename), headers, nil, content)
	if err != nil {
		return err
	}
	if !res.OK() {
		return core.NewUploadFailed(c.failure(core.OperationUploadAttachment, target, res.StatusCode))
	}
	return nil
}

// DeleteAttachment removes filename from item itemID. A non-2xx answer is
// logged and tolerated; only transport failures are returned.
func (c *Client) DeleteAttachment(ctx context.Context, filename string, itemID int) error {
	if err := c.validateAttachment(core.OperationDeleteAttachment, filename, itemID); err != nil {
		return err
	}
	headers := c.composeWriteHeaders(core.NewHeaders(
		core.Header{Name: core.HeaderRequestDigest, Value: c.credentials.Digest(ctx)},
		core.Header{Name: core.HeaderHTTPMethod, Value: "DELETE"},
		core.Header{Name: core.HeaderIfMatch, Value: "*"},
	))

	res, target, err := c.send(ctx, core.OperationDeleteAttachment, http.MethodPost, c.attachmentPath(itemID, filename), headers, nil, nil)
	if err != nil {
		return err
	}
	if !res.OK() {
		core.Log(ctx, c.logger, core.LevelWarn, "attachment delete was not accepted", map[string]any{
			"resource": c.def.Name,
			"status":   res.StatusCode,
			"url":      target,
			"filename": filename,
			"item_id":  itemID,
		})
	}
	return nil
}

func (c *Client) validateAttachment(operation string, filename string, itemID int) error {
	metadata := map[string]any{"resource": c.def.Name, "operation": operation}
	if strings.TrimSpace(filename) == "" {
		return core.NewBadInput("resource: attachment filename is required", metadata)
	}
	if itemID <= 0 {
		return core.NewBadInput("resource: attachment requires a persisted item id", metadata)
	}
	return nil
}

func (c *Client) writeBody(operation string, payload odata.Item) ([]byte, error) {
	if c.def.EntityType == "" {
		return nil, core.NewBadInput("resource: "+c.def.Name+" has no entity type for writes", map[string]any{
			"resource":  c.def.Name,
			"operation": operation,
		})
	}
	body, err := odata.Payload(payload.WithEntityType(c.def.EntityType))
	if err != nil {
		return nil, core.NewBadInput("resource: payload is not serializable: "+err.Error(), map[string]any{
			"resource":  c.def.Name,
			"operation": operation,
		})
	}
	return body, nil
}

// composeWriteHeaders starts from the base headers, drops every header the
// operation supplies and appends the operation headers.
func (c *Client) composeWriteHeaders(operation core.Headers) core.Headers {
	return core.Overlay(c.credentials.BaseHeaders(), operation)
}

func (c *Client) send(
	ctx context.Context,
	operation string,
	method string,
	path string,
	headers core.Headers,
	query map[string]string,
	body []byte,
) (core.TransportResponse, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := c.resolve(path)
	if err != nil {
		return core.TransportResponse{}, "", core.NewBadInput("resource: invalid path: "+err.Error(), map[string]any{
			"resource":  c.def.Name,
			"operation": operation,
			"path":      path,
		})
	}

	startedAt := time.Now()
	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     target,
		Headers: headers,
		Query:   query,
		Body:    body,
		Timeout: c.timeout,
	})

	status := "transport_error"
	if err == nil {
		status = strconv.Itoa(res.StatusCode)
	}
	tags := map[string]string{"resource": c.def.Name, "operation": operation, "status": status}
	core.RecordCounter(ctx, c.metrics, core.MetricRequestTotal, tags)
	core.RecordHistogram(ctx, c.metrics, core.MetricRequestDuration, float64(time.Since(startedAt).Milliseconds()), tags)

	fields := map[string]any{
		"resource":  c.def.Name,
		"operation": operation,
		"method":    method,
		"url":       target,
		"status":    status,
		"headers":   core.RedactHeaders(headers),
	}
	if err != nil {
		fields["error"] = err.Error()
		core.Log(ctx, c.logger, core.LevelWarn, "request failed", fields)
		return core.TransportResponse{}, target, err
	}
	core.Log(ctx, c.logger, core.LevelDebug, "request completed", fields)
	return res, target, nil
}

func (c *Client) failure(operation string, target string, status int) core.StatusFailure {
	return core.StatusFailure{
		Resource:  c.def.Name,
		Operation: operation,
		URL:       target,
		Status:    status,
	}
}

func projectionParams(query odata.Query) map[string]string {
	return odata.Query{Fields: query.Fields, Expand: query.Expand}.Params()
}
