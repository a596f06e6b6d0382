package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// DefaultTag is used when a reference carries no version
const DefaultTag = "latest"

// ShortDigestLength is the number of digest characters used in paths and tags
const ShortDigestLength = 12

func TruncateDigest(digest string, length int) string {
	if len(digest) <= length {
		return digest
	}
	return digest[:length]
}

// Digest returns the hex sha256 of payload.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ParseReference parses namespace/name[:version]. The version defaults to
// DefaultTag.
func ParseReference(ref string) (Reference, error) {
	path, version, hasVersion := strings.Cut(ref, ":")
	namespace, name, ok := strings.Cut(path, "/")
	if !ok || namespace == "" || name == "" || strings.Contains(name, "/") {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	if hasVersion && version == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	if !hasVersion {
		version = DefaultTag
	}
	return Reference{Namespace: namespace, Name: name, Version: version}, nil
}

func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func RemoveTagFromVersions(versions []VersionInfo, tag string) {
	for i := range versions {
		versions[i].Tags = RemoveTag(versions[i].Tags, tag)
	}
}

func AddTagToVersion(versions []VersionInfo, shortDigest, tag string) {
	for i := range versions {
		if versions[i].Hash == shortDigest {
			if !HasTag(versions[i].Tags, tag) {
				versions[i].Tags = append(versions[i].Tags, tag)
			}
			break
		}
	}
}

func RemoveTag(tags []string, tagToRemove string) []string {
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tagToRemove {
			result = append(result, t)
		}
	}
	return result
}

func CreateVersionInfo(fullDigest string, payload []byte, tag string, settings ModuleSettings) VersionInfo {
	tags := make([]string, 0)
	if tag != "" {
		tags = append(tags, tag)
	}

	return VersionInfo{
		Hash:       TruncateDigest(fullDigest, ShortDigestLength),
		FullDigest: fullDigest,
		Size:       int64(len(payload)),
		CreatedAt:  time.Now(),
		Tags:       tags,
		Settings:   settings,
	}
}
