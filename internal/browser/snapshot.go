// Package browser renders portal pages with a headless Chrome instance to
// obtain post-hydration HTML when static discovery is insufficient.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/config"
)

// jsShellSizeLimit is the HTML length under which a page containing a script
// tag is assumed to be a client-rendered shell.
const jsShellSizeLimit = 8000

// desktopUserAgent masks the headless UA; some portals serve a degraded or
// blocked page to HeadlessChrome.
const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Fetcher produces headless-browser snapshots of portal pages. It is
// stateless apart from configuration and safe for concurrent use; each Fetch
// call launches an isolated browser context.
type Fetcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewFetcher creates a snapshot fetcher.
func NewFetcher(cfg config.BrowserConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, logger: logger.Named("browser")}
}

// LooksLikeShell reports whether static HTML appears to be a client-rendered
// shell whose form only exists after JavaScript hydration.
func LooksLikeShell(html string) bool {
	h := strings.ToLower(strings.TrimSpace(html))
	if h == "" {
		return true
	}
	if strings.Contains(h, "enable javascript") {
		return true
	}
	return len(h) < jsShellSizeLimit && strings.Contains(h, "<script")
}

// clickByTextJS clicks the first visible button/link whose trimmed text
// equals one of the given candidates, returning the clicked text.
const clickByTextJS = `(texts) => {
	const els = document.querySelectorAll('button, a[role="button"], a');
	for (const text of texts) {
		for (const el of els) {
			const t = (el.innerText || '').trim();
			if (t === text && el.offsetParent !== null) {
				el.click();
				return t;
			}
		}
	}
	return '';
}`

// readyStateJS samples the signals used by the soft readiness poll.
const readyStateJS = `({
	url: window.location.href,
	inputs: document.querySelectorAll('input, textarea, select').length,
	automation: document.querySelectorAll('[data-automation-id]').length,
})`

type readyState struct {
	URL        string `json:"url"`
	Inputs     int    `json:"inputs"`
	Automation int    `json:"automation"`
}

// Fetch renders the page and returns a snapshot. Every internal failure is
// absorbed into a UsedBrowser=false result; callers fall back to static
// discovery, they never see an error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) *schemas.Snapshot {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	for _, arg := range f.cfg.Args {
		if name, ok := strings.CutPrefix(arg, "--"); ok {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	navCtx, cancelNav := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancelNav()

	if err := chromedp.Run(navCtx,
		emulation.SetUserAgentOverride(desktopUserAgent),
		emulation.SetDeviceMetricsOverride(1366, 900, 1.0, false),
		chromedp.Navigate(pageURL),
	); err != nil {
		f.logger.Warn("Headless navigation failed; falling back to static HTML.",
			zap.String("url", pageURL), zap.Error(err))
		return &schemas.Snapshot{URL: pageURL, Notes: fmt.Sprintf("browser navigation failed: %v", err)}
	}

	var notes []string

	// SPA roots hydrate asynchronously; wait briefly but don't insist.
	waitCtx, cancelWait := context.WithTimeout(navCtx, 30*time.Second)
	_ = chromedp.Run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	cancelWait()
	_ = chromedp.Run(navCtx, chromedp.Sleep(f.cfg.HydrationWait))

	currentURL := pageURL
	_ = chromedp.Run(navCtx, chromedp.Location(&currentURL))

	if isWorkdayURL(currentURL) {
		f.walkWorkdayApplyFlow(navCtx, &notes)
	}

	f.pollForReadiness(navCtx)

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		f.logger.Warn("Failed to capture rendered HTML.", zap.String("url", pageURL), zap.Error(err))
		return &schemas.Snapshot{URL: pageURL, Notes: fmt.Sprintf("browser capture failed: %v", err)}
	}
	finalURL := currentURL
	_ = chromedp.Run(navCtx, chromedp.Location(&finalURL))

	note := "browser ok"
	if len(notes) > 0 {
		note += "; " + strings.Join(notes, "; ")
	}
	return &schemas.Snapshot{
		URL:         pageURL,
		HTML:        html,
		FinalURL:    finalURL,
		UsedBrowser: true,
		Notes:       note,
	}
}

// walkWorkdayApplyFlow clicks through the Workday "Apply" control and the
// resume chooser that follows it, recording what succeeded.
func (f *Fetcher) walkWorkdayApplyFlow(ctx context.Context, notes *[]string) {
	clicked := f.clickFirstVisible(ctx, "Apply")
	if clicked == "" {
		*notes = append(*notes, "apply_not_found")
		return
	}
	*notes = append(*notes, "clicked:apply")
	_ = chromedp.Run(ctx, chromedp.Sleep(2500*time.Millisecond))

	// Autofill with Resume is preferred; Apply Manually is the fallback.
	chooser := f.clickFirstVisible(ctx, "Autofill with Resume", "Apply Manually")
	if chooser != "" {
		*notes = append(*notes, "clicked:"+strings.ReplaceAll(strings.ToLower(chooser), " ", "_"))
		_ = chromedp.Run(ctx, chromedp.Sleep(3500*time.Millisecond))
	}
	_ = chromedp.Run(ctx, chromedp.Sleep(2*time.Second))
}

func (f *Fetcher) clickFirstVisible(ctx context.Context, texts ...string) string {
	quoted := make([]string, len(texts))
	for i, t := range texts {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	script := fmt.Sprintf("(%s)([%s])", clickByTextJS, strings.Join(quoted, ","))

	var clicked string
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return ""
	}
	return clicked
}

// pollForReadiness soft-polls for signs the application form arrived: an
// /apply URL, any form controls, or a hydrated Workday widget tree. It never
// fails; absence of all signals just ends the wait.
func (f *Fetcher) pollForReadiness(ctx context.Context) {
	for attempt := 0; attempt < f.cfg.ReadyPollAttempts; attempt++ {
		var state readyState
		if err := chromedp.Run(ctx, chromedp.Evaluate(readyStateJS, &state)); err != nil {
			return
		}
		if strings.Contains(strings.ToLower(state.URL), "/apply") ||
			state.Inputs > 0 ||
			state.Automation > 20 {
			return
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(f.cfg.ReadyPollInterval)); err != nil {
			return
		}
	}
}

func isWorkdayURL(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "myworkdayjobs.com") || strings.Contains(u, "workday")
}
