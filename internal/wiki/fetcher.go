package wiki

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/telemetry"
	"hoyocodes/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("hoyocodes/internal/wiki")

const (
	report_fetcher_document = "fetcher.document"
)

// DefaultUserAgent is sent when no user agent is configured, fandom rejects
// requests without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var ErrUnexpectedStatus = errors.New("unexpected status code")

type FetcherOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Dump receives every http exchange when set.
	Dump restyutil.InstrumentOutput
}

func (o FetcherOptions) withDefaults() FetcherOptions {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Second * 30
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	return o
}

// Fetcher downloads wiki pages and parses them into goquery documents.
type Fetcher struct {
	http *resty.Client
	tel  telemetry.API
}

func NewFetcher(options FetcherOptions, tel telemetry.API) Fetcher {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("wiki", tel)
	options = options.withDefaults()

	client := resty.New()
	if options.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", options.UserAgent)
	client.SetTimeout(options.Timeout)

	// burst equal to the rate so that waiting requests are never dropped
	burst := int(options.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)
	restyutil.InstrumentClient(client, tracer, options.Dump)

	return Fetcher{http: client, tel: tel}
}

// Document fetches url and parses the body as html. Any status other than 200
// is reported as ErrUnexpectedStatus.
func (f Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_document, err, url)
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() != http.StatusOK {
		err = fmt.Errorf("fetch %s: %w: %d", url, ErrUnexpectedStatus, res.StatusCode())
		f.tel.ReportBroken(report_fetcher_document, err, url)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		f.tel.ReportBroken(report_fetcher_document, fmt.Errorf("parse: %w", err), url)
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
