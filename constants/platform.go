package constants

// Platform identifies the social network a metric was extracted from.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformOther     Platform = "other"
)

// Platforms lists every valid platform value.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformYouTube,
	PlatformTikTok,
	PlatformTwitter,
	PlatformFacebook,
	PlatformLinkedIn,
	PlatformOther,
}

// SourceType records which extraction path produced a metric.
type SourceType string

const (
	SourceScreenshot  SourceType = "screenshot"
	SourcePDF         SourceType = "pdf"
	SourceSpreadsheet SourceType = "spreadsheet"
)
