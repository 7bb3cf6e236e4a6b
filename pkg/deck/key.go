package deck

import "regexp"

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// articleKey builds the stable read-tracking identity for an article from the
// feed URL, link and title. The key is deliberately coarse: a retitled
// article counts as a new, distinct article.
func articleKey(feedURL, link, title string) string {
	return keySanitizer.ReplaceAllString(feedURL+"_"+link+"_"+title, "_")
}
