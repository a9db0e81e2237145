package trophy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/go-pdf/fpdf"

	_ "image/jpeg"
	_ "image/png"
)

// ErrNoImages is returned when neither the original sketch nor the final
// artwork can be rendered; a certificate without any artwork is useless.
var ErrNoImages = errors.New("trophy: no renderable images for certificate")

// CertificateOptions carries everything the certificate needs. Image
// fields hold raw PNG or JPEG bytes; either may be nil as long as one is
// present.
type CertificateOptions struct {
	ChildName         string
	CreationDate      time.Time
	OriginalImage     []byte
	FinalImage        []byte
	SynthesizedPrompt string
	Stats             Stats
}

// A4 portrait layout, all coordinates in millimetres.
var (
	colPrimary   = [3]int{74, 144, 226}  // subject blue
	colSecondary = [3]int{155, 89, 182}  // variable purple
	colText      = [3]int{51, 51, 51}    // dark gray
	colFooter    = [3]int{150, 150, 150} // light gray
)

// Certificate renders the achievement certificate PDF: title block, the
// sketch and the enhanced artwork side by side, the session stats, and
// the synthesized prompt printed as "source code".
func Certificate(opts CertificateOptions) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	centeredText(pdf, "KidCreatives AI Certificate", 20)

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(colText[0], colText[1], colText[2])
	centeredText(pdf, "Prompt Engineering Achievement", 30)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
	centeredText(pdf, "Created by: "+opts.ChildName, 45)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colText[0], colText[1], colText[2])
	centeredText(pdf, "Date: "+opts.CreationDate.Format("1/2/2006"), 52)

	pdf.SetDrawColor(colPrimary[0], colPrimary[1], colPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 58, 190, 58)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, 68, "Your Creative Journey:")

	placed := 0
	if placeImage(pdf, "original", opts.OriginalImage, 20, 72) {
		pdf.SetFont("Helvetica", "", 9)
		centeredTextAt(pdf, "Original Sketch", 60, 155)
		placed++
	} else {
		pdf.SetFont("Helvetica", "", 9)
		centeredTextAt(pdf, "Original sketch unavailable", 60, 112)
	}
	if placeImage(pdf, "final", opts.FinalImage, 110, 72) {
		pdf.SetFont("Helvetica", "", 9)
		centeredTextAt(pdf, "AI-Enhanced Artwork", 150, 155)
		placed++
	} else {
		pdf.SetFont("Helvetica", "", 9)
		centeredTextAt(pdf, "Final artwork unavailable", 150, 112)
	}
	if placed == 0 {
		return nil, ErrNoImages
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
	pdf.Text(20, 168, "Your Prompt Engineering Stats:")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colText[0], colText[1], colText[2])
	lines := []string{
		fmt.Sprintf("- Questions Answered: %d", opts.Stats.TotalQuestions),
		fmt.Sprintf("- Refinements Made: %d", opts.Stats.TotalEdits),
		fmt.Sprintf("- Time Spent: %s", FormatTimeSpent(opts.Stats.TimeSpent)),
		fmt.Sprintf("- Creativity Score: %d/100", opts.Stats.CreativityScore),
		fmt.Sprintf("- Prompt Length: %d characters", opts.Stats.PromptLength),
	}
	for i, line := range lines {
		pdf.Text(25, 175+float64(i)*7, line)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	pdf.Text(20, 215, "Your AI Prompt (Source Code):")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(colText[0], colText[1], colText[2])
	// Wrap into the 170mm column and cap at ten lines so a runaway prompt
	// cannot overrun the footer.
	const maxPromptLines = 10
	promptLines := pdf.SplitText(opts.SynthesizedPrompt, 170)
	if len(promptLines) > maxPromptLines {
		promptLines = promptLines[:maxPromptLines]
		promptLines[maxPromptLines-1] += "..."
	}
	for i, line := range promptLines {
		pdf.Text(20, 222+float64(i)*4.5, line)
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(colFooter[0], colFooter[1], colFooter[2])
	centeredText(pdf, "KidCreatives AI - Teaching Prompt Engineering to Young Minds", 285)
	centeredText(pdf, "This certificate proves your AI literacy skills!", 290)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// placeImage registers raw PNG/JPEG bytes under name and draws them into
// an 80x80mm box at (x, y). Undecodable or missing data is reported as
// false rather than poisoning the document's error state.
func placeImage(pdf *fpdf.Fpdf, name string, data []byte, x, y float64) bool {
	if len(data) == 0 {
		return false
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return false
	}
	var imageType string
	switch http.DetectContentType(data) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		return false
	}
	opt := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	pdf.ImageOptions(name, x, y, 80, 80, false, opt, 0, "")
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	return true
}

func centeredText(pdf *fpdf.Fpdf, s string, y float64) {
	centeredTextAt(pdf, s, 105, y)
}

func centeredTextAt(pdf *fpdf.Fpdf, s string, cx, y float64) {
	pdf.Text(cx-pdf.GetStringWidth(s)/2, y, s)
}
