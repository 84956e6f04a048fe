package service

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tieubaoca/mcq-gen-be/types"
)

// PDFService handles PDF text extraction and chunking
type PDFService struct {
	maxChunkChars int // Maximum size of each text chunk in characters
}

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkChars: 1200,
}

// NewPDFService creates a new PDF service with a configurable chunk size
func NewPDFService(config types.DocumentServiceConfig) *PDFService {
	if config.MaxChunkChars <= 0 {
		config.MaxChunkChars = DefaultDocumentServiceConfig.MaxChunkChars
	}
	return &PDFService{
		maxChunkChars: config.MaxChunkChars,
	}
}

// ExtractPages extracts the text of every page of a PDF file, in order.
// Pages that yield no text come back as empty strings so page numbers
// stay aligned. Extraction first uses the pure-Go reader and falls back
// to the pdftotext utility when the reader gets nothing out of the file.
func (s *PDFService) ExtractPages(filePath string) ([]string, error) {
	pages, err := s.extractPagesNative(filePath)
	if err != nil || allBlank(pages) {
		if err != nil {
			log.Printf("Warning: native extraction failed for %s: %v", filePath, err)
		}
		pages, err = s.extractPagesPdftotext(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text: %w", err)
		}
	}
	for i := range pages {
		pages[i] = s.cleanText(pages[i])
	}
	return pages, nil
}

// extractPagesNative reads the PDF with the ledongthuc/pdf reader.
func (s *PDFService) extractPagesNative(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	fonts := make(map[string]*pdf.Font)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", pageNum, err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractPagesPdftotext extracts every page with the pdftotext utility.
func (s *PDFService) extractPagesPdftotext(filePath string) ([]string, error) {
	log.Println("Try extracting with pdftotext")
	totalPages, err := getNumPages(filePath)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := extractPageWithPdftotext(filePath, pageNum)
		if err != nil {
			log.Printf("Warning: pdftotext got nothing at page %d: %v", pageNum, err)
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPageWithPdftotext(filePath string, pageNumber int) (string, error) {
	cmd := exec.Command("pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running pdftotext: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}

// getNumPages uses pdfinfo to get the total number of pages in a PDF file
func getNumPages(pdfPath string) (int, error) {
	cmd := exec.Command("pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %v", err)
	}

	scanner := bufio.NewScanner(&out)
	re := regexp.MustCompile(`Pages:\s+(\d+)`)
	for scanner.Scan() {
		if matches := re.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

func allBlank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// ChunkPages splits every page into chunks and tags them with their
// page number and per-page chunk id, both 1-based. Empty pages produce
// no chunks but still consume their page number.
func (s *PDFService) ChunkPages(pages []string) []types.DocumentChunk {
	var chunks []types.DocumentChunk
	for i, page := range pages {
		for cid, text := range s.ChunkPage(page) {
			chunks = append(chunks, types.DocumentChunk{
				Text:    text,
				Page:    i + 1,
				ChunkID: cid + 1,
				Length:  len(text),
			})
		}
	}
	return chunks
}

// ChunkPage splits one page of text into chunks of at most
// maxChunkChars characters, keeping sentences whole where possible.
// Sentences longer than the limit are hard-split. Chunks never span
// pages and never overlap.
func (s *PDFService) ChunkPage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.maxChunkChars {
		return []string{text}
	}

	var packed []string
	current := ""
	for _, sentence := range SplitSentences(text) {
		joined := len(sentence)
		if current != "" {
			joined += len(current) + 1
		}
		if joined <= s.maxChunkChars {
			if current != "" {
				current += " "
			}
			current += sentence
			continue
		}
		if current != "" {
			packed = append(packed, current)
		}
		current = sentence
	}
	if current != "" {
		packed = append(packed, current)
	}

	// Hard-split any single sentence that still exceeds the limit.
	var chunks []string
	for _, chunk := range packed {
		for len(chunk) > s.maxChunkChars {
			chunks = append(chunks, chunk[:s.maxChunkChars])
			chunk = chunk[s.maxChunkChars:]
		}
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

var sentenceEndRe = regexp.MustCompile(`[.?!]+\s+`)

// SplitSentences splits text at whitespace following sentence-ending
// punctuation. The punctuation stays with the sentence on its left.
func SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[last:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func (s *PDFService) cleanText(text string) string {

	replacements := map[string]string{
		"\u0000": "",   // Null character
		"\ufffd": "",   // Unicode replacement character
		"\u001b": "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
		"  ":     " ",  // Multiple spaces to single space
	}
	cleaned := text
	for old, new := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, new)
	}
	return strings.TrimSpace(cleaned)
}
