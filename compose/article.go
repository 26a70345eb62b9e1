package compose

import (
	"fmt"
	"strings"
)

// Article builds the article body: image elements in page order, plus a
// footnote when the upload is partial. imgURLs are the successfully hosted
// URLs in page order, totalImages the gallery's true image count and
// lastUploaded, when non-nil, the image count a previous partial sync
// reached.
func Article(imgURLs []string, totalImages int, lastUploaded *int) string {
	var b strings.Builder
	for _, u := range imgURLs {
		fmt.Fprintf(&b, `<img src="%s">`, u)
	}

	if lastUploaded == nil && len(imgURLs) == totalImages {
		return b.String()
	}

	b.WriteString("<p>")
	fmt.Fprintf(&b, "uploaded %d/%d", len(imgURLs), totalImages)
	if lastUploaded != nil {
		fmt.Fprintf(&b, ", resumed from %d", *lastUploaded)
	}
	if len(imgURLs) != totalImages {
		b.WriteString(", view the full gallery at the source")
	}
	b.WriteString("</p>")
	return b.String()
}
