package vision

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/romaklym/kronsteen/pkg/match"
)

// coarseScale shrinks both images for the first matching pass. The best
// coarse hit is then refined at full resolution in a small neighborhood,
// which keeps matching tractable on large screens.
const coarseScale = 4

// MatchTemplate locates a reference image within the captured screen image
// using normalized cross-correlation over luminance and returns the
// best-fit location with its similarity score as the confidence.
func MatchTemplate(screen image.Image, templatePath string) ([]match.Match, error) {
	tf, err := os.Open(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	tmpl, _, err := image.Decode(tf)
	tf.Close()
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", templatePath, err)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	if tw == 0 || th == 0 {
		return nil, fmt.Errorf("template %s is empty", templatePath)
	}
	if tw > sw || th > sh {
		return nil, fmt.Errorf("template %s (%dx%d) is larger than the search image (%dx%d)", templatePath, tw, th, sw, sh)
	}

	screenGray := toGray(screen)
	tmplGray := toGray(tmpl)

	// Coarse pass on downscaled copies.
	cx, cy := 0, 0
	if sw/coarseScale >= tw/coarseScale && tw/coarseScale > 2 && th/coarseScale > 2 {
		smallScreen := downscale(screenGray, sw/coarseScale, sh/coarseScale)
		smallTmpl := downscale(tmplGray, tw/coarseScale, th/coarseScale)
		bx, by, _ := bestCorrelation(smallScreen, smallTmpl, 0, 0, smallScreen.Bounds().Dx(), smallScreen.Bounds().Dy())
		cx, cy = bx*coarseScale, by*coarseScale
	}

	// Refine at full resolution around the coarse hit (or the whole image
	// when the coarse pass was skipped).
	x0, y0, x1, y1 := 0, 0, sw, sh
	if cx > 0 || cy > 0 {
		x0 = clamp(cx-coarseScale*2, 0, sw)
		y0 = clamp(cy-coarseScale*2, 0, sh)
		x1 = clamp(cx+tw+coarseScale*2, 0, sw)
		y1 = clamp(cy+th+coarseScale*2, 0, sh)
	}
	bx, by, score := bestCorrelation(screenGray, tmplGray, x0, y0, x1, y1)
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	m, err := match.New(match.KindTemplate, "", match.Region{X: bx, Y: by, Width: tw, Height: th}, score)
	if err != nil {
		return nil, err
	}
	return []match.Match{m}, nil
}

// bestCorrelation slides tmpl over screen within [x0,x1)x[y0,y1) and
// returns the offset with the highest normalized cross-correlation.
func bestCorrelation(screen, tmpl *image.Gray, x0, y0, x1, y1 int) (int, int, float64) {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	n := float64(tw * th)

	var tSum, tSqSum float64
	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			v := float64(tmpl.GrayAt(tx, ty).Y)
			tSum += v
			tSqSum += v * v
		}
	}
	tMean := tSum / n
	tVar := tSqSum - n*tMean*tMean

	bestX, bestY := x0, y0
	bestScore := math.Inf(-1)
	for y := y0; y+th <= y1; y++ {
		for x := x0; x+tw <= x1; x++ {
			var sSum, sSqSum, cross float64
			for ty := 0; ty < th; ty++ {
				for tx := 0; tx < tw; tx++ {
					sv := float64(screen.GrayAt(x+tx, y+ty).Y)
					tv := float64(tmpl.GrayAt(tx, ty).Y)
					sSum += sv
					sSqSum += sv * sv
					cross += sv * tv
				}
			}
			sMean := sSum / n
			sVar := sSqSum - n*sMean*sMean
			denom := math.Sqrt(sVar * tVar)
			var score float64
			if denom > 0 {
				score = (cross - n*sMean*tMean) / denom
			} else if sVar == 0 && tVar == 0 {
				// Two flat patches: identical means are a perfect match.
				if sMean == tMean {
					score = 1
				}
			}
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}
	return bestX, bestY, bestScore
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func downscale(img *image.Gray, w, h int) *image.Gray {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EncodePNG writes img to path. Used by the screenshot commands.
func EncodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
