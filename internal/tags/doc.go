// Package tags defines the tag codec boundary: reading and writing metadata
// embedded in media files. The pipeline depends only on the Codec interface;
// format-specific codecs register themselves with a Registry and the JSON
// sidecar codec serves as the universal fallback.
package tags
