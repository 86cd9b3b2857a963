package resolve

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	defaultRetryableClient     *retryablehttp.Client
	defaultRetryableClientInit sync.Once
)

func getDefaultRetryableClient() *retryablehttp.Client {
	defaultRetryableClientInit.Do(func() {
		defaultRetryableClient = retryablehttp.NewClient()
		defaultRetryableClient.Logger = nil
		defaultRetryableClient.RetryMax = 3
		defaultRetryableClient.HTTPClient.Timeout = 30 * time.Second
	})
	return defaultRetryableClient
}

// pluginMeta is the subset of META-INF/plugin.xml this site needs.
type pluginMeta struct {
	ID          string
	Name        string
	Version     string
	Description string
	SinceBuild  string
	UntilBuild  string
}

type archiveInfo struct {
	Checksum string
	Size     int64
	Meta     pluginMeta
}

// fetchArchive downloads a plugin distribution and extracts its checksum,
// size, and embedded descriptor. Plugin archives are small (well under a
// megabyte), so buffering the whole file is fine.
func fetchArchive(ctx context.Context, url string) (*archiveInfo, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := getDefaultRetryableClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	checksum := sha256.Sum256(data)
	meta, err := extractPluginMeta(data)
	if err != nil {
		return nil, err
	}
	return &archiveInfo{
		Checksum: hex.EncodeToString(checksum[:]),
		Size:     int64(len(data)),
		Meta:     meta,
	}, nil
}

const metaFile = "META-INF/plugin.xml"

type pluginDescriptor struct {
	ID          string `xml:"id"`
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Description string `xml:"description"`
	IdeaVersion struct {
		SinceBuild string `xml:"since-build,attr"`
		UntilBuild string `xml:"until-build,attr"`
	} `xml:"idea-version"`
}

// extractPluginMeta reads META-INF/plugin.xml from the plugin library jar
// nested inside a distribution zip. The distribution layout is
// <plugin>/lib/<plugin>*.jar with the descriptor inside that jar.
func extractPluginMeta(data []byte) (pluginMeta, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return pluginMeta{}, fmt.Errorf("failed to open plugin archive: %w", err)
	}
	if len(archive.File) == 0 {
		return pluginMeta{}, fmt.Errorf("plugin archive is empty")
	}
	// distributions have a single root directory named after the plugin
	root, _, _ := strings.Cut(archive.File[0].Name, "/")
	libDir := root + "/lib/"
	for _, file := range archive.File {
		dir, base := path.Split(file.Name)
		if dir != libDir || !strings.Contains(base, root) {
			continue
		}
		meta, err := readDescriptorFromJar(file)
		if err != nil {
			continue
		}
		return meta, nil
	}
	return pluginMeta{}, fmt.Errorf("could not find %s", metaFile)
}

func readDescriptorFromJar(file *zip.File) (pluginMeta, error) {
	rc, err := file.Open()
	if err != nil {
		return pluginMeta{}, err
	}
	defer rc.Close()
	jar, err := io.ReadAll(rc)
	if err != nil {
		return pluginMeta{}, err
	}
	jarReader, err := zip.NewReader(bytes.NewReader(jar), int64(len(jar)))
	if err != nil {
		return pluginMeta{}, err
	}
	descFile, err := jarReader.Open(metaFile)
	if err != nil {
		return pluginMeta{}, err
	}
	defer descFile.Close()

	var desc pluginDescriptor
	if err := xml.NewDecoder(descFile).Decode(&desc); err != nil {
		return pluginMeta{}, fmt.Errorf("failed to parse %s: %w", metaFile, err)
	}
	return pluginMeta{
		ID:          strings.TrimSpace(desc.ID),
		Name:        strings.TrimSpace(desc.Name),
		Version:     strings.TrimSpace(desc.Version),
		Description: strings.TrimSpace(desc.Description),
		SinceBuild:  desc.IdeaVersion.SinceBuild,
		UntilBuild:  desc.IdeaVersion.UntilBuild,
	}, nil
}
