// Package site renders the plugin repository documents and writes them to the
// output directory.
package site

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/mdklatt/idea-plugin-repo/internal/config"
	"github.com/mdklatt/idea-plugin-repo/internal/registry"
	"github.com/mdklatt/idea-plugin-repo/internal/resolve"
)

//go:embed templates
var builtinTemplates embed.FS

// Document is a rendered output file: a path relative to the output directory
// plus its content.
type Document struct {
	Path string
	Body []byte
}

const (
	IndexFile      = "index.html"
	DescriptorFile = "updatePlugins.xml"
	indexTemplate  = "index.html.tmpl"
)

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer loads the page templates, from templateDir when given and from
// the embedded defaults otherwise.
func NewRenderer(templateDir string) (*Renderer, error) {
	var tmpl *template.Template
	var err error
	if templateDir != "" {
		tmpl, err = template.ParseGlob(filepath.Join(templateDir, "*.tmpl"))
	} else {
		tmpl, err = template.ParseFS(builtinTemplates, "templates/*.tmpl")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if tmpl.Lookup(indexTemplate) == nil {
		return nil, fmt.Errorf("template %s not found", indexTemplate)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type failedEntry struct {
	ID   string
	Name string
	Err  string
}

type indexData struct {
	Title   string
	Owner   string
	BaseURL string
	Plugins []*registry.Record
	Failed  []failedEntry
}

// Render produces the index page and the repository descriptor. Rendering is
// pure: identical inputs yield identical bytes. Failed entries are flagged on
// the index page and excluded from the descriptor.
func (r *Renderer) Render(site *config.Site, results []resolve.Result) ([]Document, error) {
	data := indexData{
		Title:   site.Title,
		Owner:   site.Owner,
		BaseURL: site.BaseURL,
	}
	for _, res := range results {
		if res.Err != nil {
			data.Failed = append(data.Failed, failedEntry{
				ID:   res.Spec.ID,
				Name: res.Spec.Name,
				Err:  res.Err.Error(),
			})
			continue
		}
		data.Plugins = append(data.Plugins, res.Record)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, indexTemplate, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", IndexFile, err)
	}
	index := Document{Path: IndexFile, Body: buf.Bytes()}

	descriptor, err := renderDescriptor(data.Plugins)
	if err != nil {
		return nil, err
	}
	return []Document{index, descriptor}, nil
}

// updatePlugins.xml schema, as consumed by the IDE's custom plugin repository
// client.
type descriptorXML struct {
	XMLName xml.Name              `xml:"plugins"`
	Plugins []descriptorPluginXML `xml:"plugin"`
}

type descriptorPluginXML struct {
	ID          string          `xml:"id,attr"`
	URL         string          `xml:"url,attr"`
	Version     string          `xml:"version,attr"`
	IdeaVersion *ideaVersionXML `xml:"idea-version,omitempty"`
}

type ideaVersionXML struct {
	SinceBuild string `xml:"since-build,attr,omitempty"`
	UntilBuild string `xml:"until-build,attr,omitempty"`
}

func renderDescriptor(records []*registry.Record) (Document, error) {
	doc := descriptorXML{Plugins: make([]descriptorPluginXML, 0, len(records))}
	for _, rec := range records {
		entry := descriptorPluginXML{
			ID:      rec.ID,
			URL:     rec.DownloadURL,
			Version: rec.Version,
		}
		if rec.SinceBuild != "" || rec.UntilBuild != "" {
			entry.IdeaVersion = &ideaVersionXML{
				SinceBuild: rec.SinceBuild,
				UntilBuild: rec.UntilBuild,
			}
		}
		doc.Plugins = append(doc.Plugins, entry)
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to render %s: %w", DescriptorFile, err)
	}
	return Document{
		Path: DescriptorFile,
		Body: append([]byte(xml.Header), append(body, '\n')...),
	}, nil
}
