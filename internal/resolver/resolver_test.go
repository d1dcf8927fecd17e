package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

const gpw = "http://www.gpwonline.co.za/Gazettes/Pages/"

func TestClassifyKnownSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		referrer string
		label    string
		want     gazette.Metadata
		volume   VolumePolicy
	}{
		{
			name:     "tender bulletin",
			referrer: gpw + "Published-Tender-Bulletin.aspx",
			label:    "2923_1-7_TenderBulletin",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleTenderBulletin,
				JurisdictionCode: "ZA",
				IssueNumber:      2923,
			},
			volume: VolumeOptional,
		},
		{
			name:     "label with surrounding whitespace",
			referrer: gpw + "Published-Tender-Bulletin.aspx",
			label:    "\r\n  2923_1-7_TenderBulletin  ",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleTenderBulletin,
				JurisdictionCode: "ZA",
				IssueNumber:      2923,
			},
			volume: VolumeOptional,
		},
		{
			name:     "eastern cape provincial",
			referrer: gpw + "Provincial-Gazettes-Eastern-Cape.aspx",
			label:    "4001_1-2-",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleProvincialGazette,
				JurisdictionCode: "ZA-EC",
				IssueNumber:      4001,
			},
			volume: VolumeManualReview,
		},
		{
			name:     "regulation gazette",
			referrer: gpw + "Published-National-Regulation-Gazettes.aspx",
			label:    "40001_10-6_Regulation",
			want: gazette.Metadata{
				PublicationTitle:    gazette.TitleGovernmentGazette,
				PublicationSubtitle: "Regulation Gazette",
				JurisdictionCode:    "ZA",
				IssueNumber:         40001,
			},
			volume: VolumeRequired,
		},
		{
			name:     "legal gazette b with part",
			referrer: gpw + "Published-Legal-Gazettes.aspx",
			label:    "39650_5-2_LegalB_Part2",
			want: gazette.Metadata{
				PublicationTitle:    gazette.TitleGovernmentGazette,
				PublicationSubtitle: "Legal Gazette B",
				JurisdictionCode:    "ZA",
				IssueNumber:         39650,
				PartNumber:          gazette.IntPtr(2),
			},
			volume: VolumeRequired,
		},
		{
			name:     "national gazette in afrikaans",
			referrer: "https://gpwonline.co.za/Gazettes/Pages/Published-National-Government-Gazettes.aspx?p=3",
			label:    "39771_4-3_Afr",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleGovernmentGazette,
				JurisdictionCode: "ZA",
				IssueNumber:      39771,
				LanguageEdition:  "af",
			},
			volume: VolumeRequired,
		},
		{
			name:     "western cape month page",
			referrer: "https://www.westerncape.gov.za/general-publication/provincial-gazettes-2016",
			label:    "Provincial Gazette 7581 - Friday, 8 January 2016",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleProvincialGazette,
				JurisdictionCode: "ZA-WC",
				IssueNumber:      7581,
			},
			volume: VolumeAbsent,
		},
		{
			name:     "western cape extraordinary",
			referrer: "http://www.capegateway.gov.za/eng/pubs/public_info/P/2015/12",
			label:    "Provincial Gazette Extraordinary 7499 - 2 December 2015",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleProvincialGazette,
				JurisdictionCode: "ZA-WC",
				IssueNumber:      7499,
			},
			volume: VolumeAbsent,
		},
		{
			name:     "western cape alphabetic index",
			referrer: "https://www.westerncape.gov.za/documents/public_info/P",
			label:    "\n Provincial Gazette 7412 - Friday, 15 May 2015",
			want: gazette.Metadata{
				PublicationTitle: gazette.TitleProvincialGazette,
				JurisdictionCode: "ZA-WC",
				IssueNumber:      7412,
			},
			volume: VolumeAbsent,
		},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Classify(tt.referrer, tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Metadata)
			assert.Equal(t, tt.volume, got.Volume)
		})
	}
}

func TestClassifyLiquorLicensesOrderedTokens(t *testing.T) {
	t.Parallel()

	referrer := gpw + "Published-Liquor-Licenses.aspx"
	tests := []struct {
		label        string
		title        string
		jurisdiction string
	}{
		{"2011_3-6_NCape_LiquorLicenses", gazette.TitleProvincialGazette, "ZA-NC"},
		{"2012_3-6_Northern Cape Liquor", gazette.TitleProvincialGazette, "ZA-NC"},
		{"288_3-6_Gauteng_Liquor", gazette.TitleProvincialGazette, "ZA-GT"},
		{"40100_3-6_National_Liquor", gazette.TitleGovernmentGazette, "ZA"},
		// Northern Cape tokens win over later tokens in the same label.
		{"2013_3-6_NCape_National", gazette.TitleProvincialGazette, "ZA-NC"},
		{"289_3-6_Gauteng_National", gazette.TitleProvincialGazette, "ZA-GT"},
	}

	r := New()
	for _, tt := range tests {
		got, err := r.Classify(referrer, tt.label)
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.title, got.Metadata.PublicationTitle, tt.label)
		assert.Equal(t, tt.jurisdiction, got.Metadata.JurisdictionCode, tt.label)
		assert.Equal(t, "Liquor Licenses", got.Metadata.SpecialIssue, tt.label)
	}
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	r := New()
	tests := []struct {
		name     string
		referrer string
		label    string
		want     error
	}{
		{"unknown host", "https://example.com/Gazettes/Pages/Published-Tender-Bulletin.aspx", "1_x", gazette.ErrUnrecognizedSource},
		{"unknown path", gpw + "Published-Something-Else.aspx", "1_x", gazette.ErrUnrecognizedSource},
		{"liquor label without jurisdiction", gpw + "Published-Liquor-Licenses.aspx", "2011_3-6_Liquor", gazette.ErrUnrecognizedSource},
		{"legal label without letter", gpw + "Published-Legal-Gazettes.aspx", "39650_5-2_Legal", gazette.ErrUnrecognizedSource},
		{"missing issue number", gpw + "Published-Tender-Bulletin.aspx", "TenderBulletin", gazette.ErrExtraction},
		{"western cape label without gazette", "https://www.westerncape.gov.za/documents/public_info/P", "Annual Report 2016", gazette.ErrExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Classify(tt.referrer, tt.label)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRulesAreUniqueAndComplete(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, rule := range Rules() {
		key := rule.Host + rule.Path
		require.False(t, seen[key], "duplicate rule %s", key)
		seen[key] = true

		require.NotEmpty(t, rule.Host)
		require.NotEmpty(t, rule.Path)
		if len(rule.Variants) == 0 {
			require.NotEmpty(t, rule.Title, key)
			require.NotEmpty(t, rule.Jurisdiction, key)
			require.NotEmpty(t, rule.Volume, key)
			continue
		}
		for _, v := range rule.Variants {
			require.NotEmpty(t, v.Tokens, "%s#%s", key, v.Name)
		}
		_, ok := defaultPatterns[rule.Host]
		require.True(t, ok, "no patterns for %s", rule.Host)
	}
}
