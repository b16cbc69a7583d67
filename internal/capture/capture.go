// Package capture collects the captured forest from live pages: console output
// recorded by a headless browser plus JSON payloads embedded in the HTML.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/company-extractor/internal/fetch"
	"github.com/jonathan/company-extractor/internal/logging"
	"github.com/jonathan/company-extractor/internal/types"
)

// Capture modes
const (
	ModeBrowser = "browser"
	ModeStatic  = "static"
)

// Options configures a capture.
type Options struct {
	// Timeout bounds the whole capture of one page.
	Timeout time.Duration
	// SettleDelay is how long to keep listening after the page is ready.
	SettleDelay time.Duration
	// Headless runs Chrome without a window.
	Headless bool
	// Static skips the browser and only reads embedded JSON over HTTP.
	Static bool
	// Concurrency bounds parallel page captures in All.
	Concurrency int
	Logger      *zap.Logger
}

// DefaultOptions returns the capture defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:     60 * time.Second,
		SettleDelay: 3 * time.Second,
		Headless:    true,
		Concurrency: 2,
	}
}

func (o *Options) logger() *zap.Logger {
	return logging.OrNop(o.Logger)
}

// Result is the forest captured from one page.
type Result struct {
	Forest []types.Value
	Source types.CaptureSource
}

// Page captures one URL using the mode selected in opts.
func Page(ctx context.Context, url string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := fetch.ValidateURL(url); err != nil {
		return nil, err
	}
	if opts.Static {
		return Static(ctx, url, opts)
	}
	return Browser(ctx, url, opts)
}

// All captures every URL, running up to opts.Concurrency pages at once. The
// combined forest keeps URL order, then capture order within each page.
func All(ctx context.Context, urls []string, opts *Options) ([]types.Value, []types.CaptureSource, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	results := make([]*Result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, url := range urls {
		g.Go(func() error {
			res, err := Page(gctx, url, opts)
			if err != nil {
				return fmt.Errorf("capture of %s failed: %w", url, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var forest []types.Value
	sources := make([]types.CaptureSource, 0, len(results))
	for _, res := range results {
		forest = append(forest, res.Forest...)
		sources = append(sources, res.Source)
	}
	return forest, sources, nil
}

// Static fetches the page over HTTP and keeps each embedded JSON payload as a
// string tree. No script runs, so console output is not available.
func Static(ctx context.Context, url string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.logger().With(zap.String("url", url), zap.String("mode", ModeStatic))

	fetchOpts := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fetchOpts.Timeout = opts.Timeout
	}
	res, err := fetch.URL(ctx, url, fetchOpts)
	if err != nil {
		return nil, err
	}

	forest, err := embeddedTrees(res.HTML)
	if err != nil {
		return nil, err
	}
	log.Debug("static capture complete", zap.Int("entries", len(forest)))

	return &Result{
		Forest: forest,
		Source: newSource(url, ModeStatic, len(forest)),
	}, nil
}

// Browser loads the page in headless Chrome and records console output two
// ways: live console events of every type, with objects fetched by value, then
// the hook buffer read back from the page.
// Embedded JSON from the rendered HTML is appended last.
func Browser(ctx context.Context, url string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log := opts.logger().With(zap.String("url", url), zap.String("mode", ModeBrowser))
	log.Info("opening page")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if opts.Timeout > 0 {
		browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout)
		defer cancel()
	}

	var (
		mu   sync.Mutex
		args []ConsoleArg
	)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		call, ok := ev.(*runtime.EventConsoleAPICalled)
		if !ok {
			return
		}
		mu.Lock()
		for _, arg := range call.Args {
			args = append(args, remoteArg(arg))
		}
		mu.Unlock()
	})

	var buffer, html string
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(consoleHookScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.SettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			mu.Lock()
			pending := append([]ConsoleArg(nil), args...)
			mu.Unlock()
			resolved := ResolveObjects(pending, func(id string) ([]byte, error) {
				return objectValue(ctx, id)
			})
			if resolved > 0 {
				log.Debug("resolved console objects by value", zap.Int("objects", resolved))
			}
			mu.Lock()
			copy(args, pending)
			mu.Unlock()
			return nil
		}),
		chromedp.Evaluate(readBufferExpr, &buffer),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser capture failed: %w", err)
	}

	mu.Lock()
	forest := make([]types.Value, 0, len(args))
	for _, arg := range args {
		forest = append(forest, DecodeConsoleArg(arg))
	}
	mu.Unlock()
	events := len(forest)

	buffered := DecodeBuffer(buffer)
	forest = append(forest, buffered...)

	embedded, err := embeddedTrees(html)
	if err != nil {
		log.Warn("embedded JSON extraction failed", zap.Error(err))
	}
	forest = append(forest, embedded...)

	log.Info("browser capture complete",
		zap.Int("console_events", events),
		zap.Int("buffered_calls", len(buffered)),
		zap.Int("embedded_payloads", len(embedded)))

	return &Result{
		Forest: forest,
		Source: newSource(url, ModeBrowser, len(forest)),
	}, nil
}

func remoteArg(obj *runtime.RemoteObject) ConsoleArg {
	if obj == nil {
		return ConsoleArg{Type: "undefined"}
	}
	arg := ConsoleArg{
		Type:        string(obj.Type),
		Value:       []byte(obj.Value),
		Description: obj.Description,
		ObjectID:    string(obj.ObjectID),
	}
	if obj.Preview != nil {
		if b, err := json.Marshal(obj.Preview); err == nil {
			arg.Preview = string(b)
		}
	}
	return arg
}

// objectValue asks the page for a JSON copy of a remote object.
func objectValue(ctx context.Context, id string) ([]byte, error) {
	res, exc, err := runtime.CallFunctionOn("function() { return this; }").
		WithObjectID(runtime.RemoteObjectID(id)).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, fmt.Errorf("object %s not serializable: %s", id, exc.Text)
	}
	if res == nil {
		return nil, nil
	}
	return []byte(res.Value), nil
}

func embeddedTrees(html string) ([]types.Value, error) {
	if html == "" {
		return nil, nil
	}
	blobs, err := fetch.ExtractEmbeddedJSON(html)
	if err != nil {
		return nil, err
	}
	trees := make([]types.Value, 0, len(blobs))
	for _, blob := range blobs {
		trees = append(trees, types.String(blob))
	}
	return trees, nil
}

func newSource(url, mode string, entries int) types.CaptureSource {
	return types.CaptureSource{
		URL:       url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Mode:      mode,
		Entries:   entries,
	}
}
