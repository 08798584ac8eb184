package books

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shelfpoint/scanbridge/internal/models"
)

// Facets are the shop-owner fields derived from a volume's title and
// categories: series name, volume/issue label, and physical format.
type Facets struct {
	Series      string
	VolumeIssue string
	Format      string
}

var seriesPattern = regexp.MustCompile(`(?i)^(.+?)\s+(Vol|Volume|#|Issue)\s*(\d+)`)

// DeriveFacets parses series/volume information out of a title and infers
// the physical format from keyword matches. The format heuristic is checked
// in a fixed order: hardcover keywords win over trade-paperback keywords,
// which win over single-issue keywords; a comic/graphic-novel category only
// applies when the title itself said nothing, and defaults to trade
// paperback.
func DeriveFacets(title string, categories []string) Facets {
	facets := Facets{Format: models.BookFormatUnknown}

	if m := seriesPattern.FindStringSubmatch(title); m != nil {
		facets.Series = strings.TrimSpace(m[1])
		if strings.HasPrefix(strings.ToLower(m[2]), "vol") {
			facets.VolumeIssue = "Vol " + m[3]
		} else {
			facets.VolumeIssue = "#" + m[3]
		}
	}

	titleLower := strings.ToLower(title)
	categoriesLower := strings.ToLower(strings.Join(categories, " "))

	switch {
	case strings.Contains(titleLower, "hardcover") || strings.Contains(titleLower, "hc"):
		facets.Format = models.BookFormatHardcover
	case strings.Contains(titleLower, "trade paperback") || strings.Contains(titleLower, "tpb"):
		facets.Format = models.BookFormatTradePaperback
	case strings.Contains(titleLower, "single issue") || strings.Contains(titleLower, "comic"):
		facets.Format = models.BookFormatSingleIssue
	case strings.Contains(categoriesLower, "comic") || strings.Contains(categoriesLower, "graphic novel"):
		// Collected editions are the common case for comics.
		facets.Format = models.BookFormatTradePaperback
	}

	return facets
}

// String implements fmt.Stringer for log output.
func (f Facets) String() string {
	return fmt.Sprintf("series=%q volume=%q format=%q", f.Series, f.VolumeIssue, f.Format)
}
