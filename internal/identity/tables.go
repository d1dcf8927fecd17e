package identity

import "github.com/JakeFAU/gazette-archiver/internal/gazette"

type titleKey struct {
	title    string
	subtitle string
}

// baseNames is closed: new (title, subtitle) combinations are added here explicitly.
var baseNames = map[titleKey]string{
	{gazette.TitleGovernmentGazette, ""}:                   "government-gazette",
	{gazette.TitleGovernmentGazette, "Regulation Gazette"}: "government-gazette",
	{gazette.TitleGovernmentGazette, "Legal Gazette A"}:    "government-gazette",
	{gazette.TitleGovernmentGazette, "Legal Gazette B"}:    "government-gazette",
	{gazette.TitleGovernmentGazette, "Legal Gazette C"}:    "government-gazette",
	{gazette.TitleProvincialGazette, ""}:                   "provincial-gazette",
	{gazette.TitleTenderBulletin, ""}:                      "tender-bulletin",
}

var subtitleSuffixes = map[string]string{
	"":                   "",
	"Regulation Gazette": "-regulation-gazette",
	"Legal Gazette A":    "-legal-gazette-a",
	"Legal Gazette B":    "-legal-gazette-b",
	"Legal Gazette C":    "-legal-gazette-c",
}

var specialIssueSlugs = map[string]string{
	"":                "",
	"Liquor Licenses": "liquor-licenses",
}
