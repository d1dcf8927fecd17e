package resolver

import (
	"regexp"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// VolumePolicy says how a publisher family prints volume numbers on the cover.
type VolumePolicy string

// Volume policies attached to rules.
const (
	// VolumeAbsent is for publishers that never print a volume.
	VolumeAbsent VolumePolicy = "absent"
	// VolumeOptional parses a volume when present.
	VolumeOptional VolumePolicy = "optional"
	// VolumeRequired fails extraction when the volume is missing.
	VolumeRequired VolumePolicy = "required"
	// VolumeManualReview routes a missing volume to the manual review backlog.
	VolumeManualReview VolumePolicy = "manual_review"
)

// Rule classifies documents found on one listing page.
type Rule struct {
	Host string
	Path string
	// PathPrefix makes Path match as a prefix instead of exactly.
	PathPrefix   bool
	Title        string
	Subtitle     string
	SpecialIssue string
	Jurisdiction string
	Volume       VolumePolicy
	// Variants disambiguate a shared listing page by label. When set, one must match.
	Variants []Variant
}

// Variant overrides rule fields when any of its tokens occurs in the label.
type Variant struct {
	Name         string
	Tokens       []string
	Title        string
	Subtitle     string
	Jurisdiction string
	Volume       VolumePolicy
}

// HostPatterns holds the label regexes for one publisher host.
type HostPatterns struct {
	Issue    *regexp.Regexp
	Part     *regexp.Regexp
	Language *regexp.Regexp
}

const (
	gpwHost         = "gpwonline.co.za"
	gpwPages        = "/Gazettes/Pages/"
	westernCapeHost = "westerncape.gov.za"
	capeGatewayHost = "capegateway.gov.za"
)

// languageCodes maps label language tokens onto ISO 639-1 codes.
var languageCodes = map[string]string{
	"afr":       "af",
	"afrikaans": "af",
	"eng":       "en",
	"english":   "en",
}

var gpwPatterns = HostPatterns{
	Issue:    regexp.MustCompile(`^(\d+)_`),
	Part:     regexp.MustCompile(`(?i)part[ _-]?(\d+)`),
	Language: regexp.MustCompile(`(?i)(?:^|[_\s-])(afr|eng|afrikaans|english)(?:[_\s.-]|$)`),
}

var westernCapePatterns = HostPatterns{
	Issue: regexp.MustCompile(`Provincial Gazette\D*?(\d+)`),
}

var defaultPatterns = map[string]HostPatterns{
	gpwHost:         gpwPatterns,
	westernCapeHost: westernCapePatterns,
	capeGatewayHost: westernCapePatterns,
}

func gpwProvincial(page, jurisdiction string) Rule {
	return Rule{
		Host:         gpwHost,
		Path:         gpwPages + page,
		Title:        gazette.TitleProvincialGazette,
		Jurisdiction: jurisdiction,
		Volume:       VolumeManualReview,
	}
}

// westernCape covers every page on the provincial hosts. Month pages are reached
// by following links from /documents/public_info/P and have no stable path.
func westernCape(host string) Rule {
	return Rule{
		Host:         host,
		Path:         "/",
		PathPrefix:   true,
		Title:        gazette.TitleProvincialGazette,
		Jurisdiction: "ZA-WC",
		Volume:       VolumeAbsent,
	}
}

var defaultRules = []Rule{
	{
		Host:         gpwHost,
		Path:         gpwPages + "Published-National-Government-Gazettes.aspx",
		Title:        gazette.TitleGovernmentGazette,
		Jurisdiction: "ZA",
		Volume:       VolumeRequired,
	},
	{
		Host:         gpwHost,
		Path:         gpwPages + "Published-National-Regulation-Gazettes.aspx",
		Title:        gazette.TitleGovernmentGazette,
		Subtitle:     "Regulation Gazette",
		Jurisdiction: "ZA",
		Volume:       VolumeRequired,
	},
	{
		Host:         gpwHost,
		Path:         gpwPages + "Published-Legal-Gazettes.aspx",
		Title:        gazette.TitleGovernmentGazette,
		Jurisdiction: "ZA",
		Volume:       VolumeRequired,
		Variants: []Variant{
			{Name: "legal-a", Tokens: []string{"LegalA", "Legal A"}, Subtitle: "Legal Gazette A"},
			{Name: "legal-b", Tokens: []string{"LegalB", "Legal B"}, Subtitle: "Legal Gazette B"},
			{Name: "legal-c", Tokens: []string{"LegalC", "Legal C"}, Subtitle: "Legal Gazette C"},
		},
	},
	{
		Host:         gpwHost,
		Path:         gpwPages + "Published-Tender-Bulletin.aspx",
		Title:        gazette.TitleTenderBulletin,
		Jurisdiction: "ZA",
		Volume:       VolumeOptional,
	},
	{
		// One listing page carries liquor licence gazettes for three jurisdictions.
		// Token order matters: Northern Cape, then Gauteng, then national.
		Host:         gpwHost,
		Path:         gpwPages + "Published-Liquor-Licenses.aspx",
		SpecialIssue: "Liquor Licenses",
		Variants: []Variant{
			{
				Name:         "northern-cape",
				Tokens:       []string{"NCape", "N Cape", "Northern Cape"},
				Title:        gazette.TitleProvincialGazette,
				Jurisdiction: "ZA-NC",
				Volume:       VolumeManualReview,
			},
			{
				Name:         "gauteng",
				Tokens:       []string{"Gauteng"},
				Title:        gazette.TitleProvincialGazette,
				Jurisdiction: "ZA-GT",
				Volume:       VolumeManualReview,
			},
			{
				Name:         "national",
				Tokens:       []string{"National"},
				Title:        gazette.TitleGovernmentGazette,
				Jurisdiction: "ZA",
				Volume:       VolumeRequired,
			},
		},
	},
	gpwProvincial("Provincial-Gazettes-Eastern-Cape.aspx", "ZA-EC"),
	gpwProvincial("Provincial-Gazettes-Free-State.aspx", "ZA-FS"),
	gpwProvincial("Provincial-Gazettes-Gauteng.aspx", "ZA-GT"),
	gpwProvincial("Provincial-Gazettes-KwaZulu-Natal.aspx", "ZA-NL"),
	gpwProvincial("Provincial-Gazettes-Limpopo.aspx", "ZA-LP"),
	gpwProvincial("Provincial-Gazettes-Mpumalanga.aspx", "ZA-MP"),
	gpwProvincial("Provincial-Gazettes-Northern-Cape.aspx", "ZA-NC"),
	gpwProvincial("Provincial-Gazettes-North-West.aspx", "ZA-NW"),
	westernCape(westernCapeHost),
	westernCape(capeGatewayHost),
}

// Rules returns a copy of the built-in classification table.
func Rules() []Rule {
	return append([]Rule(nil), defaultRules...)
}
