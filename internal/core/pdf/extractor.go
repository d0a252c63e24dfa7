package pdf

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// PageText is the native-extracted text of one page.
type PageText struct {
	PageNumber int
	Text       string
}

// PageImage is a rasterized page handed to the OCR engine.
type PageImage struct {
	PageNumber int
	Image      image.Image
}

// Extractor pulls native text and embedded page images out of PDFs using
// pdfcpu. Scanned manuals carry each page as a single full-page image, which
// is what the OCR path consumes.
type Extractor struct {
	log     *logger.Logger
	tempDir string
}

func NewExtractor(log *logger.Logger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "maintexa-pdf")
	_ = os.MkdirAll(tempDir, 0o755)
	return &Extractor{log: log, tempDir: tempDir}
}

// Validate checks the PDF magic bytes and the configured size ceiling before
// any processing starts.
func (e *Extractor) Validate(data []byte, maxBytes int64) error {
	if int64(len(data)) > maxBytes {
		return &core.UploadValidationError{
			Reason: fmt.Sprintf("file is %d bytes, limit is %d", len(data), maxBytes),
		}
	}
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		return &core.UploadValidationError{Reason: "file is not a PDF"}
	}
	return nil
}

// PageCount reads the document catalog without extracting anything.
func (e *Extractor) PageCount(ctx context.Context, data []byte) (int, error) {
	tempFile, cleanup, err := e.writeTemp(data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return 0, &core.ExtractionError{Stage: "load", Err: err}
	}
	return pdfCtx.PageCount, nil
}

// ExtractPages returns the native text of every page, in page order. Pages
// without extractable text come back empty rather than failing the call.
func (e *Extractor) ExtractPages(ctx context.Context, data []byte) ([]PageText, error) {
	tempFile, cleanup, err := e.writeTemp(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, &core.ExtractionError{Stage: "load", Err: err}
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, "pages_"+uuid.NewString())
	_ = os.MkdirAll(outDir, 0o755)
	defer os.RemoveAll(outDir)

	pages := make([]PageText, 0, pageCount)
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		e.log.Warn("pdf content extraction failed, returning empty pages", "error", err)
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, PageText{PageNumber: pageNum})
		}
		return pages, nil
	}

	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = DecodeContentText(string(content))
			continue
		}
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = DecodeContentText(string(content))
		}
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, PageText{PageNumber: pageNum, Text: pageTexts[pageNum]})
	}
	return pages, nil
}

// ExtractPageImages pulls the embedded images of each page. For scanned
// manuals every page is one full-page raster, so the largest image per page
// is kept when a page carries several.
func (e *Extractor) ExtractPageImages(ctx context.Context, data []byte) ([]PageImage, error) {
	tempFile, cleanup, err := e.writeTemp(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, &core.ExtractionError{Stage: "load", Err: err}
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, "images_"+uuid.NewString())
	_ = os.MkdirAll(outDir, 0o755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractImagesFile(tempFile, outDir, nil, conf); err != nil {
		return nil, &core.ExtractionError{Stage: "ocr", Err: fmt.Errorf("extract images: %w", err)}
	}

	type candidate struct {
		img  image.Image
		area int
	}
	best := make(map[int]candidate)

	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		pageNum, ok := pageFromImageName(file.Name())
		if !ok || pageNum < 1 || pageNum > pageCount {
			continue
		}
		f, err := os.Open(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			e.log.Debug("skipping undecodable page image", "file", file.Name(), "error", err)
			continue
		}
		b := img.Bounds()
		area := b.Dx() * b.Dy()
		if prev, seen := best[pageNum]; !seen || area > prev.area {
			best[pageNum] = candidate{img: img, area: area}
		}
	}

	out := make([]PageImage, 0, len(best))
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if c, ok := best[pageNum]; ok {
			out = append(out, PageImage{PageNumber: pageNum, Image: c.img})
		}
	}
	if len(out) == 0 {
		return nil, &core.ExtractionError{Stage: "ocr", Err: fmt.Errorf("no page images found in %d pages", pageCount)}
	}
	return out, nil
}

func (e *Extractor) writeTemp(data []byte) (string, func(), error) {
	tempFile := filepath.Join(e.tempDir, "extract_"+uuid.NewString()+".pdf")
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return "", nil, &core.ExtractionError{Stage: "load", Err: fmt.Errorf("write temp pdf: %w", err)}
	}
	return tempFile, func() { _ = os.Remove(tempFile) }, nil
}

// pageFromImageName parses pdfcpu image file names of the form
// <base>_<page>_<resource>.<ext>.
func pageFromImageName(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return 0, false
	}
	var pageNum int
	if _, err := fmt.Sscanf(parts[len(parts)-2], "%d", &pageNum); err != nil {
		return 0, false
	}
	return pageNum, true
}
