package maven

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const metadataFilename = "maven-metadata.xml"

// metadata is the subset of maven-metadata.xml used for version listing and
// snapshot resolution.
type metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Versioning versioning `xml:"versioning"`
}

type versioning struct {
	Latest           string            `xml:"latest"`
	Release          string            `xml:"release"`
	Versions         []string          `xml:"versions>version"`
	LastUpdated      string            `xml:"lastUpdated"`
	Snapshot         *snapshot         `xml:"snapshot"`
	SnapshotVersions []snapshotVersion `xml:"snapshotVersions>snapshotVersion"`
}

type snapshot struct {
	Timestamp   string `xml:"timestamp"`
	BuildNumber int    `xml:"buildNumber"`
	LocalCopy   bool   `xml:"localCopy"`
}

type snapshotVersion struct {
	Classifier string `xml:"classifier"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated"`
}

func parseMetadata(data []byte) (*metadata, error) {
	var md metadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", metadataFilename, err)
	}
	return &md, nil
}

// snapshotFilename returns the name of the timestamped file a snapshot was
// deployed as, or the plain file name for locally installed snapshots.
func (md *metadata) snapshotFilename(c Coordinate) string {
	ext := c.extension()
	for _, sv := range md.Versioning.SnapshotVersions {
		if sv.Extension == ext && sv.Classifier == c.Classifier && sv.Value != "" {
			return c.filename(sv.Value)
		}
	}
	if s := md.Versioning.Snapshot; s != nil && s.Timestamp != "" && !s.LocalCopy {
		base := strings.TrimSuffix(c.Version, snapshotMarker)
		return c.filename(fmt.Sprintf("%s%s-%d", base, s.Timestamp, s.BuildNumber))
	}
	return c.Filename()
}
