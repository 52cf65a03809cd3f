package objectclient

import (
	"net/url"
	"strings"
)

// ParseS3URL splits a storage URL into bucket and key. It accepts
// scheme://bucket/key (s3://, mem://) and the virtual-hosted
// https://bucket.s3.region.amazonaws.com/key form UploadFile returns.
// Unrecognised input yields empty strings.
func ParseS3URL(raw string) (bucket, key string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ""
	}
	key = strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "http", "https":
		host := u.Hostname()
		if i := strings.Index(host, ".s3."); i > 0 {
			return host[:i], key
		}
		if i := strings.Index(host, ".s3-"); i > 0 {
			return host[:i], key
		}
		// Path-style: https://s3.region.amazonaws.com/bucket/key
		if strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-") {
			b, k, _ := strings.Cut(key, "/")
			return b, k
		}
		return "", ""
	default:
		return u.Host, key
	}
}
