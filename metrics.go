package seoaudit

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Title and description length bounds, in characters.
const (
	TitleMinLength       = 30
	TitleMaxLength       = 65
	DescriptionMinLength = 70
	DescriptionMaxLength = 160
)

// CTAKeywords are the call-to-action phrases that count toward the UX score.
var CTAKeywords = []string{"お問い合わせ", "予約", "資料請求", "無料相談", "contact", "apply", "signup", "申し込み"}

// CheckTitle returns an issue description for the title, or "" when it is fine.
func CheckTitle(title string) string {
	return checkLength("title", title, TitleMinLength, TitleMaxLength)
}

// CheckDescription returns an issue description for the meta description,
// or "" when it is fine.
func CheckDescription(desc string) string {
	return checkLength("description", desc, DescriptionMinLength, DescriptionMaxLength)
}

func checkLength(name, s string, lo, hi int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return name + " missing"
	}
	n := utf8.RuneCountInString(s)
	switch {
	case n < lo:
		return fmt.Sprintf("%s too short (%d)", name, n)
	case n > hi:
		return fmt.Sprintf("%s too long (%d)", name, n)
	}
	return ""
}

// MetricsInput holds the page facts the scores are computed from.
type MetricsInput struct {
	URL            string
	Title          string
	Description    string
	H1             string
	WordCount      int
	ParagraphCount int
	Images         []Image
	Links          []string
	Viewport       string
	HasLDJSON      bool
	Text           string
}

// Metrics holds the rule-based scores for a page.
type Metrics struct {
	Images             int     `json:"images"`
	ImagesAltFilled    int     `json:"imagesAltFilled"`
	ImagesAltRatio     float64 `json:"imagesAltRatio"`
	UniqueLinks        int     `json:"uniqueLinks"`
	HasLDJSON          bool    `json:"hasLdJson"`
	HasViewport        bool    `json:"hasViewport"`
	HasMetaDescription bool    `json:"hasMetaDescription"`
	HasH1              bool    `json:"hasH1"`
	CTAHits            int     `json:"ctaHits"`
	SEOScore           int     `json:"seoScore"`
	UXScore            int     `json:"uxScore"`
}

// ComputeMetrics scores a page for SEO and UX on a 0-100 scale.
func ComputeMetrics(in MetricsInput) Metrics {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	h1 := strings.TrimSpace(in.H1)
	viewport := strings.ToLower(in.Viewport)
	wc := in.WordCount
	paras := in.ParagraphCount

	altOK := 0
	for _, img := range in.Images {
		if strings.TrimSpace(img.Alt) != "" {
			altOK++
		}
	}
	altRatio := 0.0
	if len(in.Images) > 0 {
		altRatio = float64(altOK) / float64(len(in.Images))
	}

	depth := strings.Count(in.URL, "/")

	unique := make(map[string]struct{}, len(in.Links))
	for _, l := range in.Links {
		unique[l] = struct{}{}
	}
	uniqueLinks := len(unique)

	hasViewport := strings.Contains(viewport, "width=device-width")

	text := strings.ToLower(in.Text)
	ctaHits := 0
	for _, kw := range CTAKeywords {
		if strings.Contains(text, kw) {
			ctaHits++
		}
	}

	seo := 0
	seo += pick(title != "", 15, 0)
	seo += pick(desc != "", 15, 0)
	seo += pick(h1 != "", 10, 0)
	seo += pick(in.HasLDJSON, 10, 0)
	seo += tiered(altRatio >= 0.66, altRatio >= 0.33, 10, 5)
	seo += tiered(uniqueLinks >= 10, uniqueLinks >= 3, 10, 5)
	seo += tiered(wc >= 500 && wc <= 3000, wc > 3000, 10, 5)
	seo += pick(paras >= 5, 10, 0)

	ux := 0
	ux += pick(hasViewport, 20, 0)
	ux += pick(wc >= 500 && wc <= 2500, 10, 5)
	ux += tiered(paras >= 6, paras >= 3, 10, 5)
	ux += tiered(ctaHits >= 2, ctaHits == 1, 10, 5)
	ux += pick(depth <= 6, 10, 5)
	ux += pick(uniqueLinks >= 5, 10, 0)

	return Metrics{
		Images:             len(in.Images),
		ImagesAltFilled:    altOK,
		ImagesAltRatio:     math.Round(altRatio*100) / 100,
		UniqueLinks:        uniqueLinks,
		HasLDJSON:          in.HasLDJSON,
		HasViewport:        hasViewport,
		HasMetaDescription: desc != "",
		HasH1:              h1 != "",
		CTAHits:            ctaHits,
		SEOScore:           min(100, seo),
		UXScore:            min(100, ux),
	}
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}

func tiered(full, partial bool, fullPts, partialPts int) int {
	switch {
	case full:
		return fullPts
	case partial:
		return partialPts
	}
	return 0
}
