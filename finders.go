package kronsteen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/romaklym/kronsteen/pkg/match"
	"github.com/romaklym/kronsteen/pkg/vision"
	"github.com/romaklym/kronsteen/pkg/waitfor"
)

// TextOptions refine a text query. Zero values defer to the client
// settings: zero Timeout and Interval use the configured defaults, zero
// MinConfidence uses the configured cut, and the zero Mode is contains.
type TextOptions struct {
	// Mode is the comparison strategy; defaults to contains.
	Mode match.Mode
	// CaseSensitive forces exact-case comparison for this query even when
	// the client default is case-insensitive.
	CaseSensitive bool
	// MinConfidence discards weaker matches; zero uses the settings value.
	MinConfidence float64
	// Region scopes the search to a screen area.
	Region *match.Region
	// Timeout and Interval bound the wait loop; zero uses settings.
	Timeout  time.Duration
	Interval time.Duration
}

// TemplateOptions refine a template query.
type TemplateOptions struct {
	// Confidence is the minimum similarity score; zero means 0.8.
	Confidence float64
	// Region scopes the search to a screen area.
	Region *match.Region
	// Timeout and Interval bound the wait loop; zero uses settings.
	Timeout  time.Duration
	Interval time.Duration
}

const defaultTemplateConfidence = 0.8

func (c *Client) waitOptions(describe string, timeout, interval time.Duration) waitfor.Options {
	if timeout <= 0 {
		timeout = c.settings.DefaultTimeout
	}
	if interval <= 0 {
		interval = c.settings.RetryInterval
	}
	return waitfor.Options{Timeout: timeout, Interval: interval, Describe: describe}
}

// textQuery builds the filtered query for a text search. The visual
// provider is captured here, at wait start, so an engine swap during a
// wait does not affect it.
func (c *Client) textQuery(query string, opts TextOptions) waitfor.Query {
	visual := c.visual
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = c.settings.MinConfidence
	}
	filter := match.Filter{
		Query:         query,
		Mode:          opts.Mode,
		CaseSensitive: opts.CaseSensitive || c.settings.CaseSensitive,
		MinConfidence: minConfidence,
		Scope:         opts.Region,
	}
	return func(ctx context.Context) ([]match.Match, error) {
		found, err := visual.Query(ctx, vision.Request{
			Kind:   match.KindText,
			Needle: query,
			Region: opts.Region,
		})
		if err != nil {
			return nil, err
		}
		return filter.Apply(found)
	}
}

func (c *Client) templateQuery(path string, opts TemplateOptions) waitfor.Query {
	visual := c.visual
	confidence := opts.Confidence
	if confidence <= 0 {
		confidence = defaultTemplateConfidence
	}
	filter := match.Filter{MinConfidence: confidence, Scope: opts.Region}
	return func(ctx context.Context) ([]match.Match, error) {
		found, err := visual.Query(ctx, vision.Request{
			Kind:   match.KindTemplate,
			Needle: path,
			Region: opts.Region,
		})
		if err != nil {
			return nil, err
		}
		return filter.Apply(found)
	}
}

// FindText waits until text matching the query appears on screen and
// returns the best match. The wait is bounded by opts.Timeout or the
// configured default; exhaustion returns a *waitfor.NotFoundError.
func (c *Client) FindText(ctx context.Context, query string, opts TextOptions) (match.Match, error) {
	describe := fmt.Sprintf("text %q", query)
	out, err := waitfor.Until(ctx, c.waitOptions(describe, opts.Timeout, opts.Interval), c.textQuery(query, opts))
	if err != nil {
		return match.Match{}, err
	}
	c.logger.Debug("text found",
		zap.String("query", query),
		zap.String("text", out.Match.Text),
		zap.Float64("confidence", out.Match.Confidence),
		zap.Int("attempts", out.Attempts),
		zap.Duration("elapsed", out.Elapsed))
	return out.Match, nil
}

// WaitForText is FindText under its waiting name; both run the same loop.
func (c *Client) WaitForText(ctx context.Context, query string, opts TextOptions) (match.Match, error) {
	return c.FindText(ctx, query, opts)
}

// FindAllText performs a single query and returns every match that clears
// the filter. An empty query returns all recognized text.
func (c *Client) FindAllText(ctx context.Context, query string, opts TextOptions) ([]match.Match, error) {
	return c.textQuery(query, opts)(ctx)
}

// ClickOnText waits for the text and clicks the center of its bounding
// region through the focus gate.
func (c *Client) ClickOnText(ctx context.Context, query string, opts TextOptions) (match.Match, error) {
	m, err := c.FindText(ctx, query, opts)
	if err != nil {
		return match.Match{}, err
	}
	x, y := m.Region.Center()
	if err := c.Click(ctx, x, y); err != nil {
		return match.Match{}, err
	}
	return m, nil
}

// WaitForTextToDisappear waits until no text matching the query remains on
// screen. The outcome's EverPresent field distinguishes an observed
// disappearance from a vacuous one where the text was never present, which
// still counts as a valid absence. Exhausting the timeout while the text
// persists returns a *waitfor.StillPresentError.
func (c *Client) WaitForTextToDisappear(ctx context.Context, query string, opts TextOptions) (waitfor.Outcome, error) {
	describe := fmt.Sprintf("text %q", query)
	out, err := waitfor.UntilGone(ctx, c.waitOptions(describe, opts.Timeout, opts.Interval), c.textQuery(query, opts))
	if err != nil {
		return out, err
	}
	c.logger.Debug("text disappeared",
		zap.String("query", query),
		zap.Bool("ever_present", out.EverPresent),
		zap.Int("attempts", out.Attempts),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

// FindTemplate performs a single template-matching query and returns the
// best hit, or a *waitfor.NotFoundError when no location clears the
// confidence cut.
func (c *Client) FindTemplate(ctx context.Context, path string, opts TemplateOptions) (match.Match, error) {
	found, err := c.templateQuery(path, opts)(ctx)
	if err != nil {
		return match.Match{}, err
	}
	best, ok := match.Best(found)
	if !ok {
		return match.Match{}, &waitfor.NotFoundError{Query: fmt.Sprintf("template %q", path)}
	}
	return best, nil
}

// WaitForTemplate waits until the template image appears on screen.
func (c *Client) WaitForTemplate(ctx context.Context, path string, opts TemplateOptions) (match.Match, error) {
	describe := fmt.Sprintf("template %q", path)
	out, err := waitfor.Until(ctx, c.waitOptions(describe, opts.Timeout, opts.Interval), c.templateQuery(path, opts))
	if err != nil {
		return match.Match{}, err
	}
	return out.Match, nil
}

// ClickOnTemplate waits for the template and clicks its center through the
// focus gate.
func (c *Client) ClickOnTemplate(ctx context.Context, path string, opts TemplateOptions) (match.Match, error) {
	m, err := c.WaitForTemplate(ctx, path, opts)
	if err != nil {
		return match.Match{}, err
	}
	x, y := m.Region.Center()
	if err := c.Click(ctx, x, y); err != nil {
		return match.Match{}, err
	}
	return m, nil
}

// FindColor performs a single scan for an exact pixel color, optionally
// scoped to a region, and returns its 1x1 match.
func (c *Client) FindColor(ctx context.Context, hexColor string, region *match.Region) (match.Match, error) {
	found, err := c.visual.Query(ctx, vision.Request{
		Kind:   match.KindColor,
		Needle: hexColor,
		Region: region,
	})
	if err != nil {
		return match.Match{}, err
	}
	best, ok := match.Best(found)
	if !ok {
		return match.Match{}, &waitfor.NotFoundError{Query: fmt.Sprintf("color %s", hexColor)}
	}
	return best, nil
}
