package metainject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/duongmedia/linkgate/internal/models"
)

const testTemplate = `<html><head>
<title>__META_TITLE__</title>
<meta property="og:title" content="__META_TITLE__">
<meta property="og:description" content="__META_DESCRIPTION__">
<meta property="og:image" content="__META_IMAGE__">
<meta property="og:url" content="__META_URL__">
<meta property="og:site_name" content="__META_SITE_NAME__">
<meta property="og:type" content="__META_TYPE__">
<meta name="twitter:title" content="__META_TITLE__">
<meta name="author" content="__META_AUTHOR__">
<meta property="article:published_time" content="__META_PUBLISHED_TIME__">
</head></html>`

func TestInject_SubstitutesAllPlaceholders(t *testing.T) {
	meta := models.LinkMeta{
		Title:       "Flash Sale 50%",
		Description: "Deal hot",
		Image:       "https://img/1.jpg",
		URL:         "https://l.ink/flash50",
		SiteName:    "LinkGate",
		Type:        "article",
		Author:      "editor",
		PublishedTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out := string(Inject([]byte(testTemplate), meta))

	assert.Contains(t, out, "<title>Flash Sale 50%</title>")
	assert.GreaterOrEqual(t, countOccurrences(out, "Flash Sale 50%"), 3)
	assert.NotContains(t, out, "__META_")
	assert.Contains(t, out, `content="2026-01-02T03:04:05Z"`)
}

func TestInject_MissingFieldsBecomeEmptyNotLiteralPlaceholder(t *testing.T) {
	out := string(Inject([]byte(testTemplate), models.LinkMeta{Title: "Only Title"}))
	assert.NotContains(t, out, "__META_")
	assert.Contains(t, out, `content=""`)
}

func TestInject_EscapesSpecialCharacters(t *testing.T) {
	meta := models.LinkMeta{Title: `<script>&"'</script>`}
	out := string(Inject([]byte(testTemplate), meta))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
