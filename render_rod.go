package mdexport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/process"
)

// Compile-time interface checks.
var (
	_ surfaceFactory = (*rodFactory)(nil)
	_ surface        = (*rodSurface)(nil)
)

// rodFactory launches one Chrome through go-rod on first use.
// Rod downloads Chromium on first run if no binary is configured.
type rodFactory struct {
	cfg    exporterConfig
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	closed   bool
}

func newRodFactory(cfg exporterConfig, logger *zap.Logger) *rodFactory {
	return &rodFactory{cfg: cfg, logger: logger}
}

// ensureBrowser lazily launches and connects to the browser.
func (f *rodFactory) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, errSurfaceClosed)
	}
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New()
	if f.cfg.browserBin != "" {
		l = l.Bin(f.cfg.browserBin)
	}
	if f.cfg.noSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	f.logger.Debug("browser started", zap.String("backend", string(BackendRod)), zap.Int("pid", l.PID()))
	f.launcher = l
	f.browser = browser
	return browser, nil
}

// NewSurface opens a blank tab.
func (f *rodFactory) NewSurface(ctx context.Context) (surface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return &rodSurface{page: page}, nil
}

// Close shuts the browser down and kills any helper process left behind.
func (f *rodFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		process.KillProcessGroup(f.launcher.PID())
		f.launcher.Kill()
		f.launcher.Cleanup()
		f.launcher = nil
	}
	return err
}

// rodSurface is one go-rod tab. HTML is loaded from a temp file to avoid
// data URL size limits.
type rodSurface struct {
	page    *rod.Page
	cleanup func()
}

func (s *rodSurface) Load(ctx context.Context, htmlContent string) error {
	path, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return err
	}
	s.cleanup = cleanup

	page := s.page.Context(ctx)
	if err := page.Navigate("file://" + path); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

func (s *rodSurface) AddScript(ctx context.Context, script diagramScript) error {
	return s.page.Context(ctx).AddScriptTag(script.URL, script.Content)
}

func (s *rodSurface) Eval(ctx context.Context, fn string) (string, error) {
	obj, err := s.page.Context(ctx).Eval(fn)
	if err != nil {
		return "", err
	}
	return obj.Value.Str(), nil
}

func (s *rodSurface) PrintPDF(ctx context.Context) ([]byte, error) {
	reader, err := s.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

func (s *rodSurface) Destroy() error {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return s.page.Close()
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
