package mdexport

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

	"github.com/alnah/go-mdexport/internal/fileutil"
)

// Compile-time interface checks.
var (
	_ surfaceFactory = (*chromedpFactory)(nil)
	_ surface        = (*chromedpSurface)(nil)
)

// wsURLReadTimeout is how long to wait for Chrome to print its DevTools URL.
const wsURLReadTimeout = 60 * time.Second

// chromedpFactory runs one Chrome through chromedp. Each surface is a new
// tab context derived from the browser context.
type chromedpFactory struct {
	cfg    exporterConfig
	logger *zap.Logger

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closed        bool
}

func newChromedpFactory(cfg exporterConfig, logger *zap.Logger) *chromedpFactory {
	return &chromedpFactory{cfg: cfg, logger: logger}
}

func (f *chromedpFactory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.WSURLReadTimeout(wsURLReadTimeout),
	)
	if f.cfg.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if f.cfg.browserBin != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.browserBin))
	}
	return opts
}

// ensureBrowser starts Chrome on first use.
func (f *chromedpFactory) ensureBrowser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, errSurfaceClosed)
	}
	if f.browserCtx != nil {
		return f.browserCtx, nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), f.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser and its first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	f.logger.Debug("browser started", zap.String("backend", string(BackendChromedp)))
	f.allocCancel = allocCancel
	f.browserCtx = browserCtx
	f.browserCancel = browserCancel
	return browserCtx, nil
}

// NewSurface opens a new tab. Cancelling ctx closes the tab.
func (f *chromedpFactory) NewSurface(ctx context.Context) (surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browserCtx, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	stop := context.AfterFunc(ctx, cancel)

	return &chromedpSurface{ctx: tabCtx, cancel: cancel, stop: stop}, nil
}

// Close closes the browser gracefully, then releases the allocator.
func (f *chromedpFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.browserCtx != nil {
		err = chromedp.Cancel(f.browserCtx)
		f.browserCancel()
		f.allocCancel()
		f.browserCtx = nil
	}
	return err
}

// chromedpSurface is one chromedp tab.
type chromedpSurface struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func() bool
	cleanup func()
}

func (s *chromedpSurface) Load(_ context.Context, htmlContent string) error {
	path, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return err
	}
	s.cleanup = cleanup

	if err := chromedp.Run(s.ctx,
		chromedp.Navigate("file://"+path),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

// addScriptJS appends a script element and resolves once it has executed.
const addScriptJS = `async () => {
  const url = %s, content = %s;
  await new Promise((resolve, reject) => {
    const el = document.createElement("script");
    if (url) {
      el.src = url;
      el.onload = resolve;
      el.onerror = () => reject(new Error("failed to load " + url));
    } else {
      el.text = content;
    }
    document.head.appendChild(el);
    if (!url) resolve();
  });
  return "";
}`

func (s *chromedpSurface) AddScript(ctx context.Context, script diagramScript) error {
	url, err := json.Marshal(script.URL)
	if err != nil {
		return err
	}
	content, err := json.Marshal(script.Content)
	if err != nil {
		return err
	}
	_, err = s.Eval(ctx, fmt.Sprintf(addScriptJS, url, content))
	return err
}

func (s *chromedpSurface) Eval(_ context.Context, fn string) (string, error) {
	var out string
	err := chromedp.Run(s.ctx,
		chromedp.Evaluate("("+fn+")()", &out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	return out, err
}

func (s *chromedpSurface) PrintPDF(_ context.Context) ([]byte, error) {
	var pdfBuf []byte
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		pdfBuf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			WithPaperWidth(paperWidthInches).
			WithPaperHeight(paperHeightInches).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

func (s *chromedpSurface) Destroy() error {
	s.stop()
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	s.cancel()
	return nil
}
