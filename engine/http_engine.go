package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

	// maxBody caps how much of a response is read into memory.
	maxBody = 10 << 20
)

// HTTPEngine fetches pages with a plain GET. It handles server-rendered
// recipe pages without starting a browser.
type HTTPEngine struct {
	client *http.Client

	// detectShells fails pages that only render with JavaScript, so a
	// browser engine gets them instead.
	detectShells bool
}

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine with a Chrome TLS fingerprint.
// timeout bounds each request; zero means the caller's context decides.
func NewHTTPEngine(timeout time.Duration) *HTTPEngine {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// WithShellDetection makes the engine fail on script-rendered pages. Only
// enable it when a browser engine is in the race to pick them up.
func (e *HTTPEngine) WithShellDetection() *HTTPEngine {
	e.detectShells = true
	return e
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", browserUserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http engine: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http engine: read body: %w", err)
	}

	// Anything but a successful HTML page lets the browser engines try.
	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, fmt.Errorf("http engine: status %d (content-type: %s)", resp.StatusCode, ct)
	}

	page := string(body)
	if e.detectShells && needsBrowser(page) {
		return nil, errNeedsBrowser
	}
	return &FetchResult{
		HTML:       page,
		Title:      extractTitle(page),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// extractTitle returns the text of the first <title> element.
func extractTitle(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	var (
		inTitle bool
		b       strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			if tn, _ := z.TagName(); string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		case html.EndTagToken:
			if inTitle {
				return strings.TrimSpace(b.String())
			}
		}
	}
}

var errNeedsBrowser = errors.New("http engine: page is rendered by javascript")

var (
	reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)
	emptyRoots = []string{`<div id="root"></div>`, `<div id="app"></div>`, `<div id="__next"></div>`}
)

// minBodyText is the visible text below which a page counts as a shell.
const minBodyText = 200

// needsBrowser guesses whether a fetched page is an app shell whose
// content only appears after scripts run.
func needsBrowser(page string) bool {
	text := visibleText(page)
	if len(text) < minBodyText {
		return true
	}

	lower := strings.ToLower(page)
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}
	if reNoscript.MatchString(lower) {
		return true
	}
	return strings.Count(lower, "<script") > 10 && len(text) < 500
}

// visibleText returns the text inside <body>, without script, style and
// noscript content.
func visibleText(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	var (
		b      strings.Builder
		inBody bool
		skip   int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			switch tn, _ := z.TagName(); string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skip++
			}
		case html.EndTagToken:
			switch tn, _ := z.TagName(); string(tn) {
			case "script", "style", "noscript":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if inBody && skip == 0 {
				if t := strings.TrimSpace(string(z.Text())); t != "" {
					b.WriteString(t)
					b.WriteByte(' ')
				}
			}
		}
	}
}
