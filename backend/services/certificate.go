package services

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"

	"learnify/backend/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	certWidth  = 1684 // A4 landscape at 144 dpi
	certHeight = 1190
)

var (
	certBackground = color.RGBA{R: 0xe6, G: 0xf2, B: 0xff, A: 0xff}
	certBorder     = color.RGBA{R: 0x1f, G: 0x4e, B: 0x8c, A: 0xff}
	certText       = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
)

type CertificateData struct {
	Learner  string
	Course   string
	IssuedAt time.Time
}

// CertificateRenderer draws completion certificates. Fonts are parsed once.
type CertificateRenderer struct {
	regular *truetype.Font
	bold    *truetype.Font
	italic  *truetype.Font
}

func NewCertificateRenderer() (*CertificateRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}
	return &CertificateRenderer{regular: regular, bold: bold, italic: italic}, nil
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Render writes the certificate as PNG.
func (r *CertificateRenderer) Render(w io.Writer, data CertificateData) error {
	const W, H = float64(certWidth), float64(certHeight)
	dc := gg.NewContext(certWidth, certHeight)

	dc.SetColor(certBackground)
	dc.DrawRectangle(0, 0, W, H)
	dc.Fill()

	// double border
	dc.SetColor(certBorder)
	dc.SetLineWidth(10)
	dc.DrawRectangle(30, 30, W-60, H-60)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(55, 55, W-110, H-110)
	dc.Stroke()

	cx := W / 2
	dc.SetFontFace(face(r.bold, 84))
	dc.DrawStringAnchored("Certificate of Completion", cx, 230, 0.5, 0.5)

	dc.SetColor(certText)
	dc.SetFontFace(face(r.regular, 36))
	dc.DrawStringAnchored("This is to certify that", cx, 360, 0.5, 0.5)

	dc.SetColor(certBorder)
	dc.SetFontFace(face(r.bold, 64))
	dc.DrawStringAnchored(data.Learner, cx, 460, 0.5, 0.5)

	dc.SetColor(certText)
	dc.SetFontFace(face(r.regular, 36))
	dc.DrawStringAnchored("has successfully completed the course", cx, 560, 0.5, 0.5)

	dc.SetFontFace(face(r.bold, 52))
	dc.DrawStringAnchored(data.Course, cx, 650, 0.5, 0.5)

	dc.SetFontFace(face(r.regular, 30))
	dc.DrawStringAnchored("Date: "+data.IssuedAt.Format("January 2, 2006"), cx, 740, 0.5, 0.5)

	dc.SetFontFace(face(r.italic, 28))
	dc.DrawStringWrapped(acknowledgement(data), cx, 830, 0.5, 0, W-400, 1.5, gg.AlignCenter)

	dc.SetFontFace(face(r.italic, 32))
	dc.DrawStringAnchored("Signed, Learnify Team", W-360, H-150, 0.5, 0.5)

	return dc.EncodePNG(w)
}

func acknowledgement(data CertificateData) string {
	return fmt.Sprintf("In recognition of the dedication and effort shown while completing every lecture of %s, "+
		"we proudly award this certificate to %s.", data.Course, data.Learner)
}

// CertificateFilename is the attachment name offered to the browser.
func CertificateFilename(course string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, course)
	return name + "_Certificate.png"
}

// CompletedCourses keeps the enrolled courses whose progress reached 100%.
func CompletedCourses(progress []models.CourseProgress) []models.CourseProgress {
	out := []models.CourseProgress{}
	for _, p := range progress {
		if p.Complete() {
			out = append(out, p)
		}
	}
	return out
}
