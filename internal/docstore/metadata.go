package docstore

import (
	"net/url"
	"strings"

	"custody-go/internal/custody"
)

// Object metadata keys shared by the bucket-backed stores.
const (
	metaTitle         = "title"
	metaCorrespondent = "correspondent"
	metaTags          = "tags"
)

// documentMetadata encodes the title and labels of an upload as object
// metadata. Values are query-escaped since buckets only accept ASCII.
func documentMetadata(upload custody.DocumentUpload) map[string]string {
	meta := map[string]string{metaTitle: url.QueryEscape(upload.Title)}
	if upload.CorrespondentID != "" {
		meta[metaCorrespondent] = url.QueryEscape(upload.CorrespondentID)
	}
	if len(upload.TagIDs) > 0 {
		tags := make([]string, len(upload.TagIDs))
		for i, id := range upload.TagIDs {
			tags[i] = url.QueryEscape(id)
		}
		meta[metaTags] = strings.Join(tags, ",")
	}
	return meta
}

// metadataTitle decodes the title stored by documentMetadata, falling back to
// the raw value for objects written by other tools.
func metadataTitle(meta map[string]string) string {
	title, err := url.QueryUnescape(meta[metaTitle])
	if err != nil {
		return meta[metaTitle]
	}
	return title
}

// labelIDs lists the correspondent and tag ids of an upload, correspondent
// first.
func labelIDs(upload custody.DocumentUpload) []string {
	ids := make([]string, 0, len(upload.TagIDs)+1)
	if upload.CorrespondentID != "" {
		ids = append(ids, upload.CorrespondentID)
	}
	return append(ids, upload.TagIDs...)
}
